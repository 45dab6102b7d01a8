package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gzizouseif24/xero-automation/config"
	"github.com/gzizouseif24/xero-automation/infrastructure/filesystem"
	"github.com/gzizouseif24/xero-automation/payroll"
	"github.com/gzizouseif24/xero-automation/utils"
	v1 "github.com/gzizouseif24/xero-automation/xero/v1"
)

// Runs the full pipeline from local CSV files: consolidate, report, then
// dry-run or submit.
func main() {
	sitePath := flag.String("site", "", "Path to the site hours CSV")
	travelPath := flag.String("travel", "", "Path to the travel hours CSV")
	overtimePath := flag.String("overtime", "", "Path to the overtime table CSV")
	startStr := flag.String("start", "", "Pay period start (YYYY-MM-DD)")
	endStr := flag.String("end", "", "Pay period end (YYYY-MM-DD)")
	submit := flag.Bool("submit", false, "Create draft timesheets in Xero instead of a dry run")
	artifactDir := flag.String("artifacts", "artifacts", "Directory for payload artifacts")
	matchesPath := flag.String("matches", "", "YAML file of confirmed name matches (raw name: employee ID, empty ID rejects)")
	flag.Parse()

	ctx := context.Background()

	settings, err := config.Load(ctx)
	if err != nil {
		log.Fatal(err)
	}
	if err := settings.Validate(); err != nil {
		log.Fatal(err)
	}

	var entries []payroll.RawEntry
	for _, in := range []struct {
		path   string
		source payroll.Source
	}{
		{*sitePath, payroll.SourceSite},
		{*travelPath, payroll.SourceTravel},
		{*overtimePath, payroll.SourceOvertimeTable},
	} {
		if in.path == "" {
			continue
		}
		parsed, err := readEntries(in.path, in.source)
		if err != nil {
			log.Fatalf("%s: %v", in.path, err)
		}
		entries = append(entries, parsed...)
	}
	if len(entries) == 0 {
		log.Fatal("no input files; pass -site, -travel or -overtime")
	}

	var period payroll.PayPeriod
	if *startStr != "" {
		period.Start = utils.MustParseDate(*startStr)
	}
	if *endStr != "" {
		period.End = utils.MustParseDate(*endStr)
	}

	client := v1.NewXeroClient(settings.Xero.BaseURL, settings.Xero.AccessToken, settings.Xero.TenantID)

	dir, err := fetchDirectory(ctx, client)
	if err != nil {
		log.Fatal(err)
	}

	overrides, err := loadOverrides(*matchesPath)
	if err != nil {
		log.Fatalf("%s: %v", *matchesPath, err)
	}

	result, err := payroll.ValidateAndConsolidate(entries, dir, period, settings.RunRules(overrides))
	if err != nil {
		log.Fatal(err)
	}

	printSummary(result)

	orch := payroll.NewOrchestrator(client.Timesheets, settings.PayrollMappings())
	runResult, err := orch.Submit(ctx, result.Timesheets, payroll.SubmitOptions{
		DryRun:    !*submit,
		Artifacts: filesystem.LocalArtifacts{Dir: *artifactDir},
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("\nRun %s complete\n", runResult.RunID)
	for _, rec := range runResult.Records {
		fmt.Printf("  %-30s %s\n", rec.EmployeeName, rec.Outcome)
		for _, msg := range rec.Errors {
			fmt.Printf("    - %s\n", msg)
		}
	}
	if !runResult.Success {
		os.Exit(1)
	}
}

// loadOverrides reads confirmed name matches from a YAML file so ambiguous
// employees can be unblocked without the API's matches store.
func loadOverrides(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var overrides map[string]string
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parse matches file: %w", err)
	}
	return overrides, nil
}

func readEntries(path string, source payroll.Source) ([]payroll.RawEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return payroll.ParseEntriesCSV(source, f)
}

func fetchDirectory(ctx context.Context, client *v1.XeroClient) (payroll.Directory, error) {
	employees, err := client.Employees.List(ctx)
	if err != nil {
		return payroll.Directory{}, fmt.Errorf("list employees: %w", err)
	}
	regions, err := client.Tracking.RegionOptions(ctx)
	if err != nil {
		return payroll.Directory{}, fmt.Errorf("list region options: %w", err)
	}

	return payroll.Directory{
		Employees: utils.Map(employees, func(e v1.EmployeeDTO) payroll.DirectoryEntry {
			return payroll.DirectoryEntry{ID: e.EmployeeID, Name: e.FullName()}
		}),
		Regions: utils.Map(regions, func(o v1.TrackingOptionDTO) payroll.DirectoryEntry {
			return payroll.DirectoryEntry{ID: o.TrackingOptionID, Name: o.Name}
		}),
	}, nil
}

func printSummary(result *payroll.ConsolidationResult) {
	s := result.Summary
	fmt.Printf("Consolidated %d employees, %d entries, pay period ending %s\n",
		s.TotalEmployees, s.TotalEntries, s.PayPeriodEndDate)
	for hourType, units := range s.UnitsByHourType {
		fmt.Printf("  %-10s %.2f units\n", hourType, units)
	}
	if len(result.UnresolvedEmployees) > 0 {
		fmt.Printf("Unresolved employees: %v\n", result.UnresolvedEmployees)
	}
	for _, id := range result.AmbiguousEmployees {
		if s := id.Suggestion(); s != nil {
			fmt.Printf("Ambiguous: %q -> suggest %s (%.0f%%)\n", id.RawName, s.DisplayName, s.Score*100)
		}
	}
	if len(result.UnknownRegions) > 0 {
		fmt.Printf("Unknown regions: %v\n", result.UnknownRegions)
	}
	for _, w := range result.Warnings {
		fmt.Printf("Warning: %s\n", w)
	}
}
