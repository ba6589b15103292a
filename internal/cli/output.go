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
	"sort"
	"strings"
)

// OutputFormat defines the output format type
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
)

// Printer handles formatted output
type Printer struct {
	format OutputFormat
	writer io.Writer
}

// NewPrinter creates a new Printer
func NewPrinter(format string, writer io.Writer) *Printer {
	return &Printer{
		format: OutputFormat(format),
		writer: writer,
	}
}

// PrintValue prints a single stored value
func (p *Printer) PrintValue(key, value string, found bool) error {
	switch p.format {
	case OutputFormatJSON:
		out := map[string]interface{}{"key": key, "found": found}
		if found {
			out["value"] = value
		}
		return p.printJSON(out)
	case OutputFormatText:
		if !found {
			fmt.Fprintf(p.writer, "%s: not found\n", key)
			return nil
		}
		fmt.Fprintln(p.writer, value)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintKeys prints a key listing
func (p *Printer) PrintKeys(keys []string) error {
	switch p.format {
	case OutputFormatJSON:
		if keys == nil {
			keys = []string{}
		}
		return p.printJSON(map[string]interface{}{"keys": keys})
	case OutputFormatText:
		if len(keys) == 0 {
			fmt.Fprintln(p.writer, "No keys found")
			return nil
		}
		for _, k := range keys {
			fmt.Fprintln(p.writer, k)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintValues prints a list of values, one per line in text mode
func (p *Printer) PrintValues(name string, values []string) error {
	switch p.format {
	case OutputFormatJSON:
		if values == nil {
			values = []string{}
		}
		return p.printJSON(map[string]interface{}{name: values})
	case OutputFormatText:
		for _, v := range values {
			fmt.Fprintln(p.writer, v)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintBool prints a yes/no answer
func (p *Printer) PrintBool(name string, value bool) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{name: value})
	case OutputFormatText:
		fmt.Fprintf(p.writer, "%t\n", value)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintIdentity prints identity data; absent entries are null
func (p *Printer) PrintIdentity(identity map[string]*string) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(identity)
	case OutputFormatText:
		names := make([]string, 0, len(identity))
		for k := range identity {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			v := "<none>"
			if identity[k] != nil {
				v = *identity[k]
			}
			fmt.Fprintf(p.writer, "%-15s %s\n", k+":", v)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintFields prints ordered name/value pairs
func (p *Printer) PrintFields(fields [][2]string) error {
	switch p.format {
	case OutputFormatJSON:
		out := make(map[string]string, len(fields))
		for _, f := range fields {
			out[strings.ReplaceAll(strings.ToLower(f[0]), " ", "_")] = f[1]
		}
		return p.printJSON(out)
	case OutputFormatText:
		for _, f := range fields {
			fmt.Fprintf(p.writer, "%-15s %s\n", f[0]+":", f[1])
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintSuccess prints a success message
func (p *Printer) PrintSuccess(message string) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"status":  "success",
			"message": message,
		})
	case OutputFormatText:
		fmt.Fprintln(p.writer, message)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintError prints an error message
func (p *Printer) PrintError(err error) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		})
	default:
		fmt.Fprintf(p.writer, "Error: %v\n", err)
		return nil
	}
}

func (p *Printer) printJSON(data interface{}) error {
	encoder := json.NewEncoder(p.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
