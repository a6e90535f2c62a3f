package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jwebster45206/questmap/pkg/game"
	"github.com/jwebster45206/questmap/pkg/scenario"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <scenario.yaml> [more scenario files...]\n", os.Args[0])
		os.Exit(1)
	}

	failed := false
	for _, filename := range os.Args[1:] {
		if err := validateFile(os.Stdout, filename); err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}

	fmt.Println("Scenario files are valid!")
}

func validateFile(out io.Writer, filename string) error {
	fmt.Fprintf(out, "Validating %s...\n", filename)

	baseName := filepath.Base(filename)
	if !scenario.IsScenarioFile(baseName) {
		return fmt.Errorf("scenario file must have a .yaml, .yml or .json extension: %s", baseName)
	}

	nameWithoutExt := strings.TrimSuffix(baseName, filepath.Ext(baseName))
	if !isValidScenarioFilename(nameWithoutExt) {
		return fmt.Errorf("scenario filename '%s' must be lowercase snake_case (e.g., old_town.yaml, not old-town.yaml or OldTown.yaml)", baseName)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	s, err := scenario.Parse(data, filepath.Ext(baseName), true)
	if err != nil {
		return fmt.Errorf("file %s failed strict unmarshaling: %w", filename, err)
	}

	if err := s.Validate(); err != nil {
		var verr *scenario.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("validation errors in %s:\n  - %s", filename, strings.Join(verr.Problems, "\n  - "))
		}
		return err
	}

	// Wiring the core evaluates every quest once against the opening storyline.
	if _, err := game.New(s, nil); err != nil {
		return fmt.Errorf("file %s does not load: %w", filename, err)
	}

	fmt.Fprintf(out, "  %d storylines, %d quests, %d dialogues\n", len(s.Storylines), len(s.Quests), len(s.Dialogues))
	return nil
}

var validFilenameRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)

func isValidScenarioFilename(name string) bool {
	// Allow 'x.' prefix for experimental scenarios
	name = strings.TrimPrefix(name, "x.")
	return validFilenameRegex.MatchString(name)
}
