// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-credstore.
//
// go-credstore is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-credstore/pkg/credstore"
)

func newCredsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "creds",
		Short: "Print every stored credential",
		Args:  cobra.NoArgs,
		RunE: a.withStore(func(cmd *cobra.Command, args []string, s *credstore.Store) error {
			creds, err := s.GetAllCredentials(cmd.Context())
			if err != nil {
				return err
			}
			return a.printer().PrintValues("credentials", creds)
		}),
	}
}

func newIdentityCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "identity",
		Short: "Print the DID and key pair",
		Args:  cobra.NoArgs,
		RunE: a.withStore(func(cmd *cobra.Command, args []string, s *credstore.Store) error {
			id, err := s.GetIdentityData(cmd.Context())
			if err != nil {
				return err
			}
			return a.printer().PrintIdentity(id)
		}),
	}
}

func newMatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "match PATTERN",
		Short: "Print JSON values whose keys match PATTERN",
		Long: `Print the JSON object stored under every key matching the regular
expression PATTERN, with the key injected under the remove-key field.`,
		Args: cobra.ExactArgs(1),
		RunE: a.withStore(func(cmd *cobra.Command, args []string, s *credstore.Store) error {
			values, err := s.MatchAndGetJSON(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.printer().PrintValues("values", values)
		}),
	}
}

func newRemovePresentationCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove-presentation JTI",
		Short: "Remove the first key matching JTI",
		Args:  cobra.ExactArgs(1),
		RunE: a.withStore(func(cmd *cobra.Command, args []string, s *credstore.Store) error {
			if err := s.RemovePresentation(cmd.Context(), args[0]); err != nil {
				return err
			}
			return a.printer().PrintSuccess(fmt.Sprintf("removed presentation %s", args[0]))
		}),
	}
}

func newDIDCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "did",
		Short: "Manage the decentralized identifier",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set DID",
		Short: "Store the DID",
		Args:  cobra.ExactArgs(1),
		RunE: a.withStore(func(cmd *cobra.Command, args []string, s *credstore.Store) error {
			if err := s.SetDID(cmd.Context(), args[0]); err != nil {
				return err
			}
			return a.printer().PrintSuccess("DID stored")
		}),
	})
	return cmd
}

func newLoginTypeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login-type",
		Short: "Manage the login type",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Print the login type",
		Args:  cobra.NoArgs,
		RunE: a.withStore(func(cmd *cobra.Command, args []string, s *credstore.Store) error {
			lt, err := s.GetLoginType(cmd.Context())
			if err != nil {
				return err
			}
			return a.printer().PrintValue("loginType", lt, true)
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set TYPE",
		Short: "Store the login type",
		Args:  cobra.ExactArgs(1),
		RunE: a.withStore(func(cmd *cobra.Command, args []string, s *credstore.Store) error {
			if err := s.SetLoginType(cmd.Context(), args[0]); err != nil {
				return err
			}
			return a.printer().PrintSuccess("login type stored")
		}),
	})
	return cmd
}

func newUsernameCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "username",
		Short: "Print the stored username",
		Args:  cobra.NoArgs,
		RunE: a.withStore(func(cmd *cobra.Command, args []string, s *credstore.Store) error {
			name, found, err := s.GetUsername(cmd.Context())
			if err != nil {
				return err
			}
			return a.printer().PrintValue("username", name, found)
		}),
	}
}

func newAccessKeyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "access-key",
		Short: "Manage the access key",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set [KEY]",
		Short: "Store the access key",
		Long:  `Store the access key. When KEY is omitted it is read from stdin.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: a.withStore(func(cmd *cobra.Command, args []string, s *credstore.Store) error {
			key, err := valueArg(cmd, args, 0)
			if err != nil {
				return err
			}
			if err := s.SetAccessKey(cmd.Context(), key); err != nil {
				return err
			}
			return a.printer().PrintSuccess("access key stored")
		}),
	})
	return cmd
}

func newAuthorizeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "authorize CANDIDATE",
		Short: "Check CANDIDATE against the stored access key",
		Args:  cobra.ExactArgs(1),
		RunE: a.withStore(func(cmd *cobra.Command, args []string, s *credstore.Store) error {
			ok, err := s.IsAuthorized(cmd.Context(), args[0])
			if stats := s.AttemptLimiterStats(); stats != nil {
				a.printVerbose("attempt limiter: %v attempts/min, burst %v, %v active subjects",
					stats["attempts_per_min"], stats["burst"], stats["active_subjects"])
			}
			if err != nil {
				return err
			}
			return a.printer().PrintBool("authorized", ok)
		}),
	}
}
