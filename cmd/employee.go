package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
)

var employeeCmd = &cobra.Command{
	Use:   "employee",
	Short: "Manage employee accounts",
}

var employeeAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create an employee who can log in",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		first, _ := cmd.Flags().GetString("first-name")
		last, _ := cmd.Flags().GetString("last-name")
		password, err := passwordFlag(cmd)
		if err != nil {
			return err
		}
		a, err := openApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		emp, err := a.Services.Auth.CreateEmployee(cmd.Context(), email, password, first, last)
		if err != nil {
			return err
		}
		return printJSON(cmd, emp)
	},
}

var employeePasswdCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Reset an employee's password",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, err := passwordFlag(cmd)
		if err != nil {
			return err
		}
		a, err := openApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		return a.Services.Auth.SetPassword(cmd.Context(), email, password)
	},
}

// passwordFlag prefers --password, then EMPLOYEE_PASSWORD.
func passwordFlag(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("password"); p != "" {
		return p, nil
	}
	if p := os.Getenv("EMPLOYEE_PASSWORD"); p != "" {
		return p, nil
	}
	return "", errors.New("password required: pass --password or set EMPLOYEE_PASSWORD")
}

func init() {
	for _, c := range []*cobra.Command{employeeAddCmd, employeePasswdCmd} {
		c.Flags().String("email", "", "Employee email")
		c.Flags().String("password", "", "Password (or EMPLOYEE_PASSWORD)")
		_ = c.MarkFlagRequired("email")
	}
	employeeAddCmd.Flags().String("first-name", "", "First name")
	employeeAddCmd.Flags().String("last-name", "", "Last name")

	employeeCmd.AddCommand(employeeAddCmd)
	employeeCmd.AddCommand(employeePasswdCmd)
}
