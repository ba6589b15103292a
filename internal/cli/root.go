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
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Execute runs the root command
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCommand(os.Stdout, os.Stderr)
	err := root.ExecuteContext(ctx)
	if err != nil {
		format, _ := root.PersistentFlags().GetString("output")
		_ = NewPrinter(format, os.Stderr).PrintError(err) // best-effort
	}
	return err
}

// NewRootCommand builds the command tree. Every call returns an independent
// tree with its own flag and environment bindings.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	a := &app{
		v:      viper.New(),
		out:    out,
		errOut: errOut,
	}

	root := &cobra.Command{
		Use:   "credstore",
		Short: "go-credstore CLI - credential key/value store",
		Long: `go-credstore stores identity credentials in the platform secure
storage when it is available and falls back to a local encrypted store
otherwise.

Native providers:
  - keyring: OS keychain (macOS Keychain, Secret Service, KWallet, WinCred, pass, file)
  - vault:   HashiCorp Vault KV v2`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (YAML)")
	flags.StringP("output", "o", "text", "output format (text, json)")
	flags.BoolP("verbose", "v", false, "verbose logging")
	flags.String("passphrase", "", "local store passphrase")
	flags.String("local-path", "", "directory for the local encrypted store (enables file storage)")
	flags.Bool("no-native", false, "skip platform secure storage")
	flags.String("provider", "", "native provider (keyring, vault)")

	a.v.SetEnvPrefix("CREDSTORE")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	_ = a.v.BindPFlags(flags)

	root.AddCommand(
		newVersionCmd(a),
		newBackendCmd(a),
		newGetCmd(a),
		newSetCmd(a),
		newRemoveCmd(a),
		newKeysCmd(a),
		newHasCmd(a),
		newClearCmd(a),
		newSecureCmd(a),
		newJSONCmd(a),
		newCredsCmd(a),
		newIdentityCmd(a),
		newMatchCmd(a),
		newRemovePresentationCmd(a),
		newDIDCmd(a),
		newLoginTypeCmd(a),
		newUsernameCmd(a),
		newAccessKeyCmd(a),
		newAuthorizeCmd(a),
		newNodeCmd(a),
		newServeMetricsCmd(a),
	)
	return root
}

// errAborted is returned when a destructive command is not confirmed.
var errAborted = errors.New("aborted: pass --yes to confirm")

// printVerbose prints a message if verbose mode is enabled
func (a *app) printVerbose(format string, args ...interface{}) {
	if a.v.GetBool("verbose") {
		fmt.Fprintf(a.errOut, "[VERBOSE] "+format+"\n", args...)
	}
}
