package geo

import (
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/robnorris1/property-management-system-sub000/internal/models"
)

// PropertyLocation is a geocoded property with the counts shown on the map.
type PropertyLocation struct {
	Property          models.Property
	ApplianceCount    int
	AppliancesFlagged int
}

// PortfolioMap builds a FeatureCollection with one point per geocoded
// property. Properties without coordinates are skipped. The collection's
// bbox and metadata.center cover every included point. When the points span
// an area, a final polygon feature outlines the portfolio's service area.
func PortfolioMap(locations []PropertyLocation, now time.Time) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	points := make(orb.MultiPoint, 0, len(locations))
	skipped := 0

	for _, loc := range locations {
		p := loc.Property
		if !p.HasLocation() {
			skipped++
			continue
		}

		point := orb.Point{*p.Longitude, *p.Latitude}
		points = append(points, point)

		feature := geojson.NewFeature(point)
		feature.ID = p.ID
		feature.Properties = geojson.Properties{
			"property_id":        p.ID,
			"name":               p.Name,
			"address":            p.Address,
			"city":               p.City,
			"property_type":      p.PropertyType,
			"monthly_rent":       p.MonthlyRent,
			"appliance_count":    loc.ApplianceCount,
			"appliances_flagged": loc.AppliancesFlagged,
		}
		fc.Append(feature)
	}

	metadata := map[string]interface{}{
		"generated":  now.UTC().Format(time.RFC3339),
		"properties": len(points),
		"skipped":    skipped,
	}
	if len(points) > 0 {
		bound := points.Bound()
		fc.BBox = geojson.NewBBox(bound)
		center := bound.Center()
		metadata["center"] = []float64{center.Lon(), center.Lat()}
	}
	if polygon, km2, ok := serviceArea(points); ok {
		feature := geojson.NewFeature(polygon)
		feature.Properties = geojson.Properties{
			"kind":     "service_area",
			"area_km2": km2,
		}
		fc.Append(feature)
		metadata["service_area_km2"] = km2
	}
	fc.ExtraMembers = geojson.Properties{"metadata": metadata}

	return fc
}
