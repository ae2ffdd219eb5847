package main

import (
	"fmt"

	"mobile-pos/internal/domain"
	"mobile-pos/internal/repository"
	"mobile-pos/internal/service"

	"github.com/spf13/cobra"
)

var (
	adminUsername    string
	adminPassword    string
	adminDisplayName string
)

// posctl create-admin
var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin staff account",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := bootDB(cmd.Context())
		if err != nil {
			return err
		}
		defer e.closer()

		staffService := service.NewStaffService(repository.NewPostgresStore(e.db.DB()), e.cfg.JWT.Secret, 0)
		staff, err := staffService.CreateStaff(cmd.Context(), adminUsername, adminPassword, adminDisplayName, domain.RoleAdmin)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", staff.Username, staff.ID)
		return nil
	},
}

func init() {
	createAdminCmd.Flags().StringVar(&adminUsername, "username", "", "login name")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "initial password")
	createAdminCmd.Flags().StringVar(&adminDisplayName, "name", "", "display name")
	createAdminCmd.MarkFlagRequired("username")
	createAdminCmd.MarkFlagRequired("password")
}
