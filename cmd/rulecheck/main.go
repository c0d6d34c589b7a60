// Command rulecheck lints a label rule file: mappings pointing outside the
// vocabulary, expectations referencing unknown labels, and vocabulary
// entries nothing references. Run it before shipping a rule change.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"canoncli/internal/config"
	"canoncli/internal/labels"
)

func main() {
	rulesFile := flag.String("rules", "", "label rule file (defaults to rules/labels.yaml relative to executable)")
	flag.Parse()

	if *rulesFile == "" {
		paths, err := config.GetPaths()
		if err != nil {
			slog.Error("Failed to initialize paths", "error", err)
			os.Exit(1)
		}
		*rulesFile = paths.RulesFile
	}

	findings, err := labels.Lint(*rulesFile)
	if err != nil {
		slog.Error("Failed to lint rule file",
			slog.String("rules_file", *rulesFile),
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	errors := 0
	for _, f := range findings {
		fmt.Printf("%s: %s\n", f.Severity, f.Message)
		if f.Severity == "error" {
			errors++
		}
	}

	if errors > 0 {
		fmt.Printf("%d errors, %d warnings\n", errors, len(findings)-errors)
		os.Exit(1)
	}

	// A loadable rule set is the real acceptance bar.
	if _, err := labels.Load(*rulesFile); err != nil {
		fmt.Printf("rule file failed to load: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("rule file OK (%d warnings)\n", len(findings))
}
