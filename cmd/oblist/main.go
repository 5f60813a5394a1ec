package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/liliang-cn/oblist/pkg/core"
	"github.com/liliang-cn/oblist/pkg/engine"
)

var (
	dbPath  string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "oblist",
	Short: "CLI tool for SQLite-backed observable lists",
	Long:  `A command-line interface for managing typed list columns in a SQLite database.`,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new list database",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		fmt.Printf("List database initialized at %s\n", dbPath)
		return nil
	},
}

var createCmd = &cobra.Command{
	Use:   "create <name> <type>",
	Short: "Create a typed list column",
	Long:  `Create a list column. Valid types: int, bool, float, double, string, binary, timestamp.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		ct, ok := core.ParseColumnType(args[1])
		if !ok {
			return fmt.Errorf("unknown column type %q", args[1])
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if _, err := store.List(name, ct); err != nil {
			return fmt.Errorf("failed to create list: %w", err)
		}

		fmt.Printf("List '%s' created with column type %s\n", name, ct)
		return nil
	},
}

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List all columns in the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		names, err := store.ListNames()
		if err != nil {
			return fmt.Errorf("failed to list columns: %w", err)
		}

		outputJSON, _ := cmd.Flags().GetBool("json")
		if outputJSON {
			out := make(map[string]string, len(names))
			for name, ct := range names {
				out[name] = ct.String()
			}
			data, _ := json.MarshalIndent(out, "", "  ")
			fmt.Println(string(data))
		} else {
			fmt.Printf("Lists (%d):\n", len(names))
			for name, ct := range names {
				fmt.Printf("  %s (%s)\n", name, ct)
			}
		}
		return nil
	},
}

var dumpCmd = &cobra.Command{
	Use:   "dump <name>",
	Short: "Print every value in a list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		l, err := openList(store, args[0])
		if err != nil {
			return err
		}

		vals, err := l.Values()
		if err != nil {
			return fmt.Errorf("failed to read list: %w", err)
		}

		outputJSON, _ := cmd.Flags().GetBool("json")
		if outputJSON {
			data, _ := json.MarshalIndent(vals, "", "  ")
			fmt.Println(string(data))
		} else {
			fmt.Printf("%s (%d values):\n", args[0], len(vals))
			for i, v := range vals {
				fmt.Printf("%4d. %s\n", i, formatValue(v))
			}
		}
		return nil
	},
}

var appendCmd = &cobra.Command{
	Use:   "append <name> <value>...",
	Short: "Append values to the end of a list",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		l, err := openList(store, args[0])
		if err != nil {
			return err
		}

		values := make([]any, 0, len(args)-1)
		for _, raw := range args[1:] {
			v, err := parseValue(l.ColumnType(), raw)
			if err != nil {
				return err
			}
			values = append(values, v)
		}

		if err := l.Extend(values); err != nil {
			return fmt.Errorf("failed to append: %w", err)
		}

		fmt.Printf("Appended %d value(s), list now has %d\n", len(values), l.Count())
		return nil
	},
}

var insertCmd = &cobra.Command{
	Use:   "insert <name> <index> <value>",
	Short: "Insert a value at a position",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid index: %w", err)
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		l, err := openList(store, args[0])
		if err != nil {
			return err
		}

		v, err := parseValue(l.ColumnType(), args[2])
		if err != nil {
			return err
		}
		if err := l.Insert(idx, v); err != nil {
			return fmt.Errorf("failed to insert: %w", err)
		}

		fmt.Printf("Inserted at %d, list now has %d value(s)\n", idx, l.Count())
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove <name> <index>...",
	Short: "Remove values by position",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		indexes := make([]int, 0, len(args)-1)
		for _, raw := range args[1:] {
			idx, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("invalid index: %w", err)
			}
			indexes = append(indexes, idx)
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		l, err := openList(store, args[0])
		if err != nil {
			return err
		}

		if err := l.RemoveMany(indexes); err != nil {
			return fmt.Errorf("failed to remove: %w", err)
		}

		fmt.Printf("Removed %d value(s), list now has %d\n", len(indexes), l.Count())
		return nil
	},
}

var setCmd = &cobra.Command{
	Use:   "set <name> <index> <value>",
	Short: "Replace the value at a position",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid index: %w", err)
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		l, err := openList(store, args[0])
		if err != nil {
			return err
		}

		v, err := parseValue(l.ColumnType(), args[2])
		if err != nil {
			return err
		}
		if err := l.ReplaceAt(idx, v); err != nil {
			return fmt.Errorf("failed to set: %w", err)
		}

		fmt.Printf("Replaced value at %d\n", idx)
		return nil
	},
}

var findCmd = &cobra.Command{
	Use:   "find <name> <value>",
	Short: "Find the first position of a value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		l, err := openList(store, args[0])
		if err != nil {
			return err
		}

		v, err := parseValue(l.ColumnType(), args[1])
		if err != nil {
			return err
		}
		idx, err := l.IndexOf(v)
		if err != nil {
			return fmt.Errorf("failed to search: %w", err)
		}
		if idx < 0 {
			fmt.Println("Not found")
			return nil
		}
		fmt.Printf("Found at %d\n", idx)
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear <name>",
	Short: "Remove every value from a list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		l, err := openList(store, args[0])
		if err != nil {
			return err
		}

		if err := l.Clear(); err != nil {
			return fmt.Errorf("failed to clear: %w", err)
		}

		fmt.Printf("List '%s' cleared\n", args[0])
		return nil
	},
}

var dropCmd = &cobra.Command{
	Use:   "drop <name>",
	Short: "Delete a list column",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.DropList(args[0]); err != nil {
			return fmt.Errorf("failed to drop list: %w", err)
		}

		fmt.Printf("List '%s' dropped\n", args[0])
		return nil
	},
}

// parseValue converts one CLI argument into the canonical value for a column.
func parseValue(ct core.ColumnType, raw string) (any, error) {
	switch ct {
	case core.ColumnInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid int value %q: %w", raw, err)
		}
		return n, nil
	case core.ColumnBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid bool value %q: %w", raw, err)
		}
		return b, nil
	case core.ColumnFloat:
		f, err := strconv.ParseFloat(raw, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid float value %q: %w", raw, err)
		}
		return float32(f), nil
	case core.ColumnDouble:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid double value %q: %w", raw, err)
		}
		return f, nil
	case core.ColumnString:
		return raw, nil
	case core.ColumnBinary:
		return []byte(raw), nil
	case core.ColumnTimestamp:
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("invalid timestamp %q (want RFC3339): %w", raw, err)
		}
		return t, nil
	default:
		return nil, fmt.Errorf("unsupported column type %s", ct)
	}
}

func formatValue(v any) string {
	switch val := v.(type) {
	case []byte:
		return fmt.Sprintf("0x%x", val)
	case time.Time:
		return val.Format(time.RFC3339Nano)
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

// openList looks up a column's declared type and wraps it in a list proxy.
func openList(store *engine.Store, name string) (*core.List, error) {
	names, err := store.ListNames()
	if err != nil {
		return nil, fmt.Errorf("failed to look up list: %w", err)
	}
	ct, ok := names[name]
	if !ok {
		return nil, fmt.Errorf("no list named %q (create it first)", name)
	}
	table, err := store.List(name, ct)
	if err != nil {
		return nil, fmt.Errorf("failed to open list: %w", err)
	}
	return core.NewList(table, core.ListOptions{Record: "cli", Property: name})
}

func openStore() (*engine.Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("database path not specified")
	}

	cfg := engine.DefaultConfig(dbPath)
	if verbose {
		cfg.Logger = core.NewStdLogger(core.LevelDebug)
	}
	store, err := engine.Open(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return store, nil
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "lists.db", "Database file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	tablesCmd.Flags().Bool("json", false, "Output as JSON")
	dumpCmd.Flags().Bool("json", false, "Output as JSON")

	rootCmd.AddCommand(
		initCmd,
		createCmd,
		tablesCmd,
		dumpCmd,
		appendCmd,
		insertCmd,
		removeCmd,
		setCmd,
		findCmd,
		clearCmd,
		dropCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
