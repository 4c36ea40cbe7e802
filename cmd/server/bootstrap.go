package main

import (
	"fmt"

	"istasyon-backend/internal/admin"
	"istasyon-backend/internal/config"

	"github.com/spf13/cobra"
)

type bootstrapOptions struct {
	station  string
	address  string
	name     string
	email    string
	password string
}

func newBootstrapCommand() *cobra.Command {
	opts := &bootstrapOptions{}

	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Yeni bir istasyon ve ilk yöneticisini oluşturur",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := openAndMigrate(cfg)
			if err != nil {
				return err
			}

			st, u, err := admin.NewService(db).Bootstrap(cmd.Context(), admin.BootstrapInput{
				StationName: opts.station,
				Address:     opts.address,
				Admin: admin.UserInput{
					Name:     opts.name,
					Email:    opts.email,
					Password: opts.password,
				},
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "istasyon #%d %q oluşturuldu, yönetici: %s\n", st.ID, st.Name, u.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.station, "station", "", "istasyon adı")
	cmd.Flags().StringVar(&opts.address, "address", "", "istasyon adresi")
	cmd.Flags().StringVar(&opts.name, "name", "", "yönetici adı")
	cmd.Flags().StringVar(&opts.email, "email", "", "yönetici email")
	cmd.Flags().StringVar(&opts.password, "password", "", "yönetici şifresi (en az 8 karakter)")
	for _, f := range []string{"station", "name", "email", "password"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}
