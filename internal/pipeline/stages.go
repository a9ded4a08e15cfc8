package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/paveg/reviewrisk/internal/assemble"
	"github.com/paveg/reviewrisk/internal/clean"
	"github.com/paveg/reviewrisk/internal/dataframe"
	pipeerrors "github.com/paveg/reviewrisk/internal/errors"
	"github.com/paveg/reviewrisk/internal/features"
	"github.com/paveg/reviewrisk/internal/io"
	"github.com/paveg/reviewrisk/internal/store"
	"github.com/paveg/reviewrisk/internal/validation"
)

// Assemble reads the cleaned tables, builds the master table and its
// variants and writes them to the output directory.
func (r *Runner) Assemble(ctx context.Context) (map[string]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.log.Info("stage started", "stage", StageAssemble)

	var t assemble.Tables
	var owned []*dataframe.DataFrame
	defer func() {
		for _, df := range owned {
			df.Release()
		}
	}()
	for table, dst := range map[string]**dataframe.DataFrame{
		clean.TableOrders:      &t.Orders,
		clean.TableReviews:     &t.Reviews,
		clean.TableCustomers:   &t.Customers,
		clean.TablePayments:    &t.Payments,
		clean.TableItemsAgg:    &t.ItemsAgg,
		clean.TableProducts:    &t.Products,
		clean.TableSellers:     &t.Sellers,
		clean.TableMarketing:   &t.Marketing,
		clean.TableGeolocation: &t.Geolocation,
	} {
		df, err := r.readProcessed(table)
		if err != nil {
			return nil, fmt.Errorf("assemble: %w", err)
		}
		owned = append(owned, df)
		*dst = df
	}
	issues, err := r.readProcessed(clean.TableReviewIssues)
	switch {
	case errors.Is(err, pipeerrors.ErrMissingInput):
		r.log.Warn("review issues missing, full variant gets no issue labels", "table", clean.TableReviewIssues)
	case err != nil:
		return nil, fmt.Errorf("assemble: %w", err)
	default:
		owned = append(owned, issues)
		t.ReviewIssues = issues
	}

	var rows map[string]int
	err = r.metrics.Record(StageAssemble, func() (int, error) {
		res, err := assemble.Assemble(t)
		if err != nil {
			return 0, err
		}
		defer res.Release()
		for _, c := range res.Conflicts {
			r.log.Warn("conflicting column dropped before join", "step", c.Step, "column", c.Column)
		}
		if res.DistanceImputed > 0 {
			r.log.Warn("distance imputed with median", "rows", res.DistanceImputed, "median_km", res.DistanceFill)
		}
		r.log.Info("master table built", "delivered", res.Delivered, "unlabeled_dropped", res.Unlabeled, "rows", res.Master.Len())
		if rows, err = assemble.Write(res, r.cfg); err != nil {
			return 0, err
		}
		return res.Master.Len(), nil
	})
	if err != nil {
		return nil, err
	}
	r.log.Info("stage finished", "stage", StageAssemble, "rows", rows[assemble.TableMaster])
	r.done(StageAssemble, rows[assemble.TableMaster])
	return rows, nil
}

// Features splits the master table, fits risk maps and encoders on the
// train partition and writes the modeling artifacts.
func (r *Runner) Features(ctx context.Context) (map[string]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.log.Info("stage started", "stage", StageFeatures,
		"test_fraction", r.cfg.Split.TestFraction, "seed", r.cfg.Split.Seed, "skip_text_features", r.cfg.SkipTextFeatures)

	master, err := io.ReadFile(r.cfg.OutputPath(assemble.TableMaster), r.csvOptions(clean.ProcessedTypes), r.mem)
	if err != nil {
		return nil, fmt.Errorf("features: %w", err)
	}
	defer master.Release()
	if err := validation.NewCompoundValidator(
		validation.NewColumnValidator(master, "Features", "order_id", "review_score"),
		validation.NewEmptyTableValidator(master, "Features", assemble.TableMaster),
	).Validate(); err != nil {
		return nil, fmt.Errorf("features: %w", err)
	}

	var rows map[string]int
	err = r.metrics.Record(StageFeatures, func() (int, error) {
		res, err := features.Build(master, features.Options{
			BadReviewThreshold: int64(r.cfg.BadReviewThreshold),
			TestFraction:       r.cfg.Split.TestFraction,
			Seed:               r.cfg.Split.Seed,
			SkipTextFeatures:   r.cfg.SkipTextFeatures,
		})
		if err != nil {
			return 0, err
		}
		defer res.Release()
		r.log.Info("risk maps fitted",
			"categories", len(res.CategoryRisk.Rates), "sellers", len(res.SellerRisk.Rates),
			"global_bad_rate", res.CategoryRisk.GlobalMean, "encoders", len(res.Encoders))
		if rows, err = features.Write(res, r.cfg); err != nil {
			return 0, err
		}
		return res.XTrain.Len() + res.XTest.Len(), nil
	})
	if err != nil {
		return nil, err
	}
	r.log.Info("stage finished", "stage", StageFeatures,
		"train", rows[features.ArtifactXTrain], "test", rows[features.ArtifactXTest])
	r.done(StageFeatures, rows[features.ArtifactXTrain]+rows[features.ArtifactXTest])
	return rows, nil
}

func (r *Runner) artifactPath(table string) string {
	switch table {
	case assemble.TableMaster, assemble.TableBasic, assemble.TableFull:
		return r.cfg.OutputPath(table)
	}
	return r.cfg.ProcessedPath(table)
}

// Validate runs every data-quality suite over the written artifacts.
// Violations are logged and returned, never turned into an error. A table
// that cannot be read yields one failed result.
func (r *Runner) Validate(ctx context.Context) ([]validation.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.log.Info("stage started", "stage", StageValidate)

	var results []validation.Result
	violations := 0
	_ = r.metrics.Record(StageValidate, func() (int, error) {
		for _, suite := range validation.Suites() {
			df, err := io.ReadFile(r.artifactPath(suite.Table), r.csvOptions(clean.ProcessedTypes), r.mem)
			if err != nil {
				r.log.Warn("table not validated", "table", suite.Table, "error", err)
				results = append(results, validation.Result{Table: suite.Table, Check: "readable", Err: err})
				continue
			}
			for _, res := range suite.Run(df) {
				switch {
				case res.Err != nil:
					r.log.Warn("check could not run", "table", res.Table, "check", res.Check, "error", res.Err)
				case res.Violations > 0:
					violations += res.Violations
					r.log.Warn("data quality violation", "table", res.Table, "check", res.Check, "count", res.Violations, "rows", res.Rows)
				default:
					r.log.Debug("check passed", "table", res.Table, "check", res.Check)
				}
				results = append(results, res)
			}
			df.Release()
		}
		return len(results), nil
	})
	r.log.Info("stage finished", "stage", StageValidate, "checks", len(results), "violations", violations)
	r.done(StageValidate, violations)
	return results, nil
}

// Export copies the processed tables, the master tables and the risk maps
// into the SQLite database at cfg.SQLitePath. It does nothing when no
// path is configured.
func (r *Runner) Export(ctx context.Context) (map[string]int, error) {
	if r.cfg.SQLitePath == "" {
		return nil, nil
	}
	r.log.Info("stage started", "stage", StageExport, "path", r.cfg.SQLitePath)

	db, err := store.Open(r.cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows := make(map[string]int)
	err = r.metrics.Record(StageExport, func() (int, error) {
		tables := []string{
			clean.TableOrders, clean.TableItems, clean.TableItemsAgg, clean.TableProducts,
			clean.TablePayments, clean.TableReviews, clean.TableReviewIssues, clean.TableCustomers,
			clean.TableSellers, clean.TableGeolocation, clean.TableMarketing,
			assemble.TableMaster, assemble.TableBasic, assemble.TableFull,
		}
		total := 0
		for _, table := range tables {
			df, err := io.ReadFile(r.artifactPath(table), r.csvOptions(clean.ProcessedTypes), r.mem)
			if errors.Is(err, pipeerrors.ErrMissingInput) {
				r.log.Warn("artifact missing, not exported", "table", table)
				continue
			}
			if err != nil {
				return total, err
			}
			err = db.WriteTable(ctx, table, df)
			n := df.Len()
			df.Release()
			if err != nil {
				return total, err
			}
			rows[table] = n
			total += n
		}
		for name, file := range map[string]string{
			"category_risk": features.ArtifactCategoryRisk,
			"seller_risk":   features.ArtifactSellerRisk,
		} {
			m, err := features.LoadRiskMap(r.cfg.ModelPath(file))
			if err != nil {
				r.log.Warn("risk map missing, not exported", "name", name, "error", err)
				continue
			}
			if err := db.WriteRiskMap(ctx, name, m); err != nil {
				return total, err
			}
			rows[name] = len(m.Rates) + 1
		}
		return total, nil
	})
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	r.log.Info("stage finished", "stage", StageExport, "tables", len(rows), "path", db.Path())
	r.done(StageExport, len(rows))
	return rows, nil
}
