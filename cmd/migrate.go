package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"gig-wizard/internal/migrate"
	"gig-wizard/internal/model"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Rewrite legacy name references in a skill bundle to ids",
	Long:  "Reads a skill bundle as JSON, loads the reference caches and rewrites legacy name references to canonical ids. With --final, unresolved entries are dropped instead of retained.",
	RunE:  runMigrateCmd,
}

var warmCmd = &cobra.Command{
	Use:   "warm",
	Short: "Load every reference category once and report how many are loaded",
	RunE:  runWarmCmd,
}

var (
	migrateInFile  string
	migrateOutFile string
	migrateFinal   bool
)

func init() {
	migrateCmd.Flags().StringVarP(&migrateInFile, "in", "i", "", "Path to bundle JSON file (defaults to stdin)")
	migrateCmd.Flags().StringVarP(&migrateOutFile, "out", "o", "", "Path to output JSON file (defaults to stdout)")
	migrateCmd.Flags().BoolVar(&migrateFinal, "final", false, "Drop unresolved entries instead of retaining them")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(warmCmd)
}

func runMigrateCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	deps, cleanup, err := buildApp(cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer cleanup()

	in := io.Reader(os.Stdin)
	if migrateInFile != "" {
		f, err := os.Open(migrateInFile)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		in = f
	}
	out := io.Writer(os.Stdout)
	if migrateOutFile != "" {
		f, err := os.Create(migrateOutFile)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	policy := migrate.Retain
	if migrateFinal {
		policy = migrate.Drop
	}
	res, err := runMigrate(cmd.Context(), deps.refs, in, out, policy)
	if err != nil {
		return err
	}
	log.Printf("resolved=%d unresolved=%d dropped=%d", res.Resolved, len(res.Unresolved), len(res.Dropped))
	return nil
}

// runMigrate 解码技能包、迁移并把结果写成 JSON。
func runMigrate(ctx context.Context, refs bundleMigrator, in io.Reader, out io.Writer, policy migrate.Policy) (migrate.Result, error) {
	var bundle model.Bundle
	if err := json.NewDecoder(in).Decode(&bundle); err != nil {
		return migrate.Result{}, fmt.Errorf("decode bundle: %w", err)
	}

	res := refs.LoadAndMigrate(ctx, bundle, policy)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return res, fmt.Errorf("encode result: %w", err)
	}
	return res, nil
}

func runWarmCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	loaded, err := runOnceManual(cmd.Context(), cfg, buildApp)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "loaded %d of %d categories\n", loaded, len(model.AllCategories()))
	return nil
}

// runOnceManual 构建依赖并执行一次预热。
func runOnceManual(ctx context.Context, cfg AppConfig, build appBuilder) (int, error) {
	deps, cleanup, err := build(cfg)
	if err != nil {
		return 0, fmt.Errorf("init app: %w", err)
	}
	defer cleanup()

	loaded, err := deps.sched.RunOnce(ctx)
	if err != nil {
		return loaded, fmt.Errorf("warm caches: %w", err)
	}
	return loaded, nil
}
