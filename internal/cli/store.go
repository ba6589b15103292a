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
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-credstore/pkg/credstore"
)

func newBackendCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "backend",
		Short: "Show the active storage backend",
		Args:  cobra.NoArgs,
		RunE: a.withStore(func(cmd *cobra.Command, args []string, s *credstore.Store) error {
			typ, err := s.ActiveBackend()
			if err != nil {
				return err
			}
			return a.printer().PrintFields([][2]string{
				{"Backend", string(typ)},
				{"State", s.State().String()},
			})
		}),
	}
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Print the value stored under KEY",
		Args:  cobra.ExactArgs(1),
		RunE: a.withStore(func(cmd *cobra.Command, args []string, s *credstore.Store) error {
			v, found, err := s.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.printer().PrintValue(args[0], v, found)
		}),
	}
}

func newSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY [VALUE]",
		Short: "Store VALUE under KEY",
		Long:  `Store VALUE under KEY. When VALUE is omitted it is read from stdin.`,
		Args:  cobra.RangeArgs(1, 2),
		RunE: a.withStore(func(cmd *cobra.Command, args []string, s *credstore.Store) error {
			value, err := valueArg(cmd, args, 1)
			if err != nil {
				return err
			}
			if err := s.Set(cmd.Context(), args[0], value); err != nil {
				return err
			}
			return a.printer().PrintSuccess(fmt.Sprintf("stored %s", args[0]))
		}),
	}
}

func newRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm KEY",
		Aliases: []string{"remove"},
		Short:   "Remove KEY",
		Args:    cobra.ExactArgs(1),
		RunE: a.withStore(func(cmd *cobra.Command, args []string, s *credstore.Store) error {
			if err := s.Remove(cmd.Context(), args[0]); err != nil {
				return err
			}
			return a.printer().PrintSuccess(fmt.Sprintf("removed %s", args[0]))
		}),
	}
}

func newKeysCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List stored keys",
		Args:  cobra.NoArgs,
		RunE: a.withStore(func(cmd *cobra.Command, args []string, s *credstore.Store) error {
			keys, err := s.Keys(cmd.Context())
			if err != nil {
				return err
			}
			return a.printer().PrintKeys(keys)
		}),
	}
}

func newHasCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "has KEY",
		Short: "Report whether KEY exists",
		Args:  cobra.ExactArgs(1),
		RunE: a.withStore(func(cmd *cobra.Command, args []string, s *credstore.Store) error {
			found, err := s.HasKey(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.printer().PrintBool("found", found)
		}),
	}
}

func newClearCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every stored key",
		Args:  cobra.NoArgs,
		RunE: a.withStore(func(cmd *cobra.Command, args []string, s *credstore.Store) error {
			if !yes {
				return errAborted
			}
			if err := s.ClearStorage(cmd.Context()); err != nil {
				return err
			}
			return a.printer().PrintSuccess("storage cleared")
		}),
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm")
	return cmd
}

func newSecureCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "secure",
		Short: "Verify the device secure storage",
		Args:  cobra.NoArgs,
		RunE: a.withStore(func(cmd *cobra.Command, args []string, s *credstore.Store) error {
			if err := s.SecureDevice(cmd.Context()); err != nil {
				return err
			}
			return a.printer().PrintSuccess("device secured")
		}),
	}
}

func newJSONCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "json",
		Short: "Read and write JSON values",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get KEY",
		Short: "Print the JSON value stored under KEY",
		Args:  cobra.ExactArgs(1),
		RunE: a.withStore(func(cmd *cobra.Command, args []string, s *credstore.Store) error {
			var v any
			if err := s.GetJSON(cmd.Context(), args[0], &v); err != nil {
				return err
			}
			return a.printer().printJSON(v)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set KEY [JSON]",
		Short: "Validate and store a JSON value",
		Args:  cobra.RangeArgs(1, 2),
		RunE: a.withStore(func(cmd *cobra.Command, args []string, s *credstore.Store) error {
			raw, err := valueArg(cmd, args, 1)
			if err != nil {
				return err
			}
			var v any
			if err := json.Unmarshal([]byte(raw), &v); err != nil {
				return fmt.Errorf("%w: %w", credstore.ErrParse, err)
			}
			if err := s.SetJSON(cmd.Context(), args[0], v); err != nil {
				return err
			}
			return a.printer().PrintSuccess(fmt.Sprintf("stored %s", args[0]))
		}),
	})

	return cmd
}

// valueArg returns args[i], or stdin with one trailing newline trimmed.
func valueArg(cmd *cobra.Command, args []string, i int) (string, error) {
	if len(args) > i {
		return args[i], nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return strings.TrimSuffix(string(data), "\n"), nil
}
