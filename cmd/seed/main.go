package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"clinicbook/internal/config"
	"clinicbook/internal/database"
	"clinicbook/internal/domain/availability"
	"clinicbook/internal/domain/catalog"
	"clinicbook/internal/pkg/jwt"
	"clinicbook/internal/pkg/logger"
	"clinicbook/internal/pkg/timegrid"
)

func main() {
	var (
		tenantID int64
		reset    bool
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert a demo professional, service and Monday schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log, err := logger.New(cfg.AppEnv, cfg.LogLevel)
			if err != nil {
				return err
			}
			defer log.Sync()

			db, err := database.Connect(cfg.DatabaseURL, database.Options{MaxOpenConns: cfg.DBMaxOpenConns, Log: log})
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return err
			}
			if reset {
				if err := cleanup(db); err != nil {
					return err
				}
			}

			res, err := seed(cmd.Context(), db, tenantID)
			if err != nil {
				return err
			}

			token, err := jwt.New(cfg.JWTSecret, 24*time.Hour).GenerateToken(1, tenantID, jwt.RoleStaff)
			if err != nil {
				return err
			}
			log.Info("seeded demo data",
				zap.Int64("tenant_id", tenantID),
				zap.Int64("professional_id", res.professionalID),
				zap.Int64("service_id", res.serviceID),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "staff token (24h): %s\n", token)
			return nil
		},
	}
	cmd.Flags().Int64Var(&tenantID, "tenant", 1, "tenant id to seed")
	cmd.Flags().BoolVar(&reset, "reset", false, "delete existing rows first")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type seeded struct {
	professionalID int64
	serviceID      int64
}

// cleanup deletes in dependency order.
func cleanup(db *gorm.DB) error {
	for _, table := range []string{"bookings", "date_exceptions", "weekly_rules", "services", "professionals"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clean %s: %w", table, err)
		}
	}
	return nil
}

func seed(ctx context.Context, db *gorm.DB, tenantID int64) (seeded, error) {
	var out seeded
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		catalogRepo := catalog.NewRepository(tx)
		rules := availability.NewRuleRepository(tx)

		pro := &catalog.Professional{TenantID: tenantID, DisplayName: "Dr. Demo", IsActive: true}
		if err := catalogRepo.CreateProfessional(ctx, pro); err != nil {
			return fmt.Errorf("create professional: %w", err)
		}
		svc := &catalog.Service{TenantID: tenantID, Name: "Consultation", DurationMinutes: 30, IsActive: true}
		if err := catalogRepo.CreateService(ctx, svc); err != nil {
			return fmt.Errorf("create service: %w", err)
		}

		start, _ := timegrid.Clock(9, 0)
		end, _ := timegrid.Clock(12, 0)
		rule := &availability.WeeklyRule{
			TenantID:       tenantID,
			ProfessionalID: pro.ID,
			DayOfWeek:      int(time.Monday),
			StartMinute:    start,
			EndMinute:      end,
			IsActive:       true,
		}
		if err := rules.CreateRule(ctx, rule); err != nil {
			return fmt.Errorf("create weekly rule: %w", err)
		}

		out = seeded{professionalID: pro.ID, serviceID: svc.ID}
		return nil
	})
	return out, err
}
