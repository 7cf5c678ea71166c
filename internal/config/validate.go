package config

import (
	"fmt"
	"strings"
)

// Severity classifies a validation finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one validation finding, addressed by a dotted config path.
type Issue struct {
	Severity Severity
	Path     string
	Message  string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s: %s", i.Severity, i.Path, i.Message)
}

// ValidateRun checks a run configuration and returns every finding rather
// than stopping at the first, so an operator can fix a config in one pass.
// Errors make the run unrunnable; warnings do not.
func ValidateRun(r Run) []Issue {
	var issues []Issue

	errf := func(path, format string, args ...any) {
		issues = append(issues, Issue{SeverityError, path, fmt.Sprintf(format, args...)})
	}
	warnf := func(path, format string, args ...any) {
		issues = append(issues, Issue{SeverityWarning, path, fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(r.Job) == "" {
		warnf("job", "empty job name; metrics will be tagged job:costvar")
	}

	inputs := []struct {
		path string
		in   Input
	}{
		{"inputs.cost_table", r.Inputs.CostTable},
		{"inputs.tech_list", r.Inputs.TechList},
		{"inputs.name_mapping", r.Inputs.NameMapping},
		{"inputs.fuel_metadata", r.Inputs.FuelMetadata},
	}
	for _, it := range inputs {
		if strings.TrimSpace(it.in.Path) == "" {
			errf(it.path+".path", "missing input path")
			continue
		}
		switch strings.ToLower(it.in.Format) {
		case "", "csv", "xlsx":
		default:
			errf(it.path+".format", "unsupported format %q (want csv or xlsx)", it.in.Format)
		}
	}

	if len(r.Regions) == 0 {
		errf("regions", "no regions configured")
	}
	if len(r.Periods) == 0 {
		errf("periods", "no periods configured")
	}
	for _, region := range r.Regions {
		if region == "CAN" {
			continue // aggregate placeholder, never priced
		}
		if _, ok := r.RegionIDs[region]; !ok {
			errf("region_ids", "no data_id for region %q", region)
		}
	}

	f := r.Factors
	if f.MMBTUConvertor == 0 || f.CurrencyAdjustment == 0 {
		errf("factors", "mmbtu_convertor and currency_adjustment must be non-zero")
	}
	if f.Deflation2022 == 0 || f.Deflation2025 == 0 {
		errf("factors", "deflation_2022 and deflation_2025 must be non-zero")
	}
	if f.EthPrice == 0 && f.RdslPrice == 0 && f.SpkPrice == 0 {
		warnf("factors", "all fixed external prices are zero")
	}
	if r.Fuels.BiomassPrice == 0 {
		warnf("fuels.b_price", "biomass override price is zero")
	}
	if r.Fuels.UraniumPrice == 0 {
		warnf("fuels.u_price", "uranium override price is zero")
	}

	switch r.Storage.Kind {
	case "":
		warnf("storage.kind", "no storage backend configured; results will not be persisted")
	case "sqlite", "postgres", "mssql":
		if strings.TrimSpace(r.Storage.DSN) == "" {
			errf("storage.dsn", "storage.kind=%q requires a dsn", r.Storage.Kind)
		}
	default:
		errf("storage.kind", "unsupported storage kind %q", r.Storage.Kind)
	}

	if r.Runtime.BatchSize < 0 {
		errf("runtime.batch_size", "batch_size must be >= 0")
	}

	return issues
}

// HasErrors reports whether any issue has error severity.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}
