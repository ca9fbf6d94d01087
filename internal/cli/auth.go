package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/andy/invoicer/internal/api"
	"github.com/andy/invoicer/internal/domain"
	"github.com/andy/invoicer/internal/session"
	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Sign in and manage your account",
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to your account",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		email, _ := cmd.Flags().GetString("email")
		if email == "" {
			var err error
			if email, err = readLine("Email: "); err != nil {
				return err
			}
		}
		password, err := readPassword("Password: ")
		if err != nil {
			return err
		}

		user, err := appInstance.AuthService.Login(ctx, email, password)
		if err != nil {
			if errors.Is(err, api.ErrForbidden) {
				fmt.Println("Verify your email first, or run 'invoicer auth resend-verification'.")
			}
			return err
		}

		fmt.Printf("✓ Signed in as %s\n", user.DisplayName())
		return nil
	},
}

var authRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		email, _ := cmd.Flags().GetString("email")
		name, _ := cmd.Flags().GetString("name")
		if email == "" {
			var err error
			if email, err = readLine("Email: "); err != nil {
				return err
			}
		}

		password, err := readPassword("Password: ")
		if err != nil {
			return err
		}
		confirm, err := readPassword("Confirm password: ")
		if err != nil {
			return err
		}
		if password != confirm {
			return fmt.Errorf("passwords do not match")
		}

		user, err := appInstance.AuthService.Register(ctx, domain.RegisterRequest{
			Email:    email,
			Password: password,
			FullName: name,
		})
		if err != nil {
			return err
		}

		fmt.Printf("✓ Account created for %s\n", user.Email)
		fmt.Println("  Follow the link in the verification email, then run 'invoicer auth login'.")
		return nil
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and clear the local cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := appInstance.AuthService.Logout(context.Background()); err != nil {
			return fmt.Errorf("failed to sign out: %w", err)
		}
		fmt.Println("✓ Signed out")
		return nil
	},
}

var authWhoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		user, err := appInstance.AuthService.RefreshUser(ctx)
		if err != nil {
			if errors.Is(err, session.ErrNotAuthenticated) {
				fmt.Println("Not signed in")
				return nil
			}
			// Fall back to the cached profile
			cached := appInstance.Session.Current()
			if cached.User == nil {
				return err
			}
			user = cached.User
			printStale(true)
		}

		fmt.Printf("Name:     %s\n", user.DisplayName())
		fmt.Printf("Email:    %s\n", user.Email)
		plan := "free"
		if user.IsPro {
			plan = "pro"
		}
		fmt.Printf("Plan:     %s\n", plan)
		if user.SubscriptionExpiresAt != nil {
			fmt.Printf("Renews:   %s\n", user.SubscriptionExpiresAt.Format("2006-01-02"))
		}
		return nil
	},
}

var authVerifyCmd = &cobra.Command{
	Use:   "verify [token]",
	Short: "Verify your email address with the emailed token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		res, err := appInstance.AuthService.VerifyEmail(ctx, args[0])
		if err != nil {
			return fmt.Errorf("verification failed: %w", err)
		}
		fmt.Printf("✓ %s\n", res.Message)

		if appInstance.Session.Current().Authenticated() {
			_, _ = appInstance.AuthService.RefreshUser(ctx)
		}
		return nil
	},
}

var authResendCmd = &cobra.Command{
	Use:   "resend-verification [email]",
	Short: "Send the verification email again",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var email string
		if len(args) == 1 {
			email = args[0]
		} else if u := appInstance.Session.Current().User; u != nil {
			email = u.Email
		}

		msg, err := appInstance.AuthService.ResendVerification(context.Background(), email)
		if err != nil {
			return err
		}
		fmt.Printf("✓ %s\n", msg)
		return nil
	},
}

func init() {
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authRegisterCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authWhoamiCmd)
	authCmd.AddCommand(authVerifyCmd)
	authCmd.AddCommand(authResendCmd)

	authLoginCmd.Flags().String("email", "", "Account email (prompted when omitted)")

	authRegisterCmd.Flags().String("email", "", "Account email (prompted when omitted)")
	authRegisterCmd.Flags().String("name", "", "Full name")
}
