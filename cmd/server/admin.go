package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/robnorris1/property-management-system-sub000/internal/auth"
	"github.com/robnorris1/property-management-system-sub000/internal/database"
	"github.com/robnorris1/property-management-system-sub000/internal/service"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema and data migrations, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer db.Close()

			fmt.Println("Migrations applied.")
			return nil
		},
	}
}

func reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute derived appliance state from issues and maintenance records",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer db.Close()

			normalized, err := database.NormalizeLegacyStatuses(db.GetDB())
			if err != nil {
				return fmt.Errorf("failed to normalize legacy statuses: %w", err)
			}

			svc := service.New(db.GetDB(), logger, service.Options{})
			n, err := svc.ReconcileAll(cmd.Context())
			if err != nil {
				return fmt.Errorf("reconciled %d appliances before failing: %w", n, err)
			}

			fmt.Printf("Normalized %d legacy statuses, reconciled %d appliances.\n", normalized, n)
			return nil
		},
	}
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Ensure a user exists and print a development JWT for it",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, _ := cmd.Flags().GetUint("user-id")
			email, _ := cmd.Flags().GetString("email")
			name, _ := cmd.Flags().GetString("name")

			cfg, logger, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer db.Close()

			svc := service.New(db.GetDB(), logger, service.Options{})
			user, err := svc.EnsureUser(cmd.Context(), userID, email, name)
			if err != nil {
				return err
			}

			tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
			token, err := tokens.GenerateToken(user.ID, user.Email, cfg.Auth.TokenTTL)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}

	cmd.Flags().Uint("user-id", 0, "User id to embed in the token")
	cmd.Flags().String("email", "", "Email of the user")
	cmd.Flags().String("name", "", "Display name used when the user is created")
	_ = cmd.MarkFlagRequired("user-id")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func geocodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "geocode",
		Short: "Fill coordinates for properties that have none",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer db.Close()

			cfg.Geocoding.Enabled = true
			svc := service.New(db.GetDB(), logger, service.Options{Geocoder: newGeocoder(cfg, logger)})
			n, err := svc.GeocodeMissing(cmd.Context())
			if err != nil {
				return fmt.Errorf("geocoded %d properties before failing: %w", n, err)
			}

			fmt.Printf("Geocoded %d properties.\n", n)
			return nil
		},
	}
}
