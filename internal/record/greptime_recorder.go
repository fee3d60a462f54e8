package record

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"
)

const greptimeWriteTimeout = 10 * time.Second

// greptimeClient is the subset of the ingester client the recorder uses.
type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeConfig locates a GreptimeDB instance and names the trial tables.
type GreptimeConfig struct {
	Host         string
	Port         int
	Database     string
	InputsTable  string
	OutputsTable string
	ErrorsTable  string
}

// WithDefaults fills in the public database and the dispersion_* table names.
func (c GreptimeConfig) WithDefaults() GreptimeConfig {
	if c.Database == "" {
		c.Database = "public"
	}
	if c.InputsTable == "" {
		c.InputsTable = "dispersion_inputs"
	}
	if c.OutputsTable == "" {
		c.OutputsTable = "dispersion_outputs"
	}
	if c.ErrorsTable == "" {
		c.ErrorsTable = "dispersion_errors"
	}
	return c
}

// GreptimeRecorder mirrors trial records into GreptimeDB tables tagged with
// the campaign id.
type GreptimeRecorder struct {
	client     greptimeClient
	campaignID string
	inputs     string
	outputs    string
	errors     string
	now        func() time.Time
}

// NewGreptimeRecorder connects to GreptimeDB through the ingester client.
func NewGreptimeRecorder(cfg GreptimeConfig, campaignID string) (*GreptimeRecorder, error) {
	cfg = cfg.WithDefaults()
	gcfg := greptime.NewConfig(cfg.Host).WithDatabase(cfg.Database)
	if cfg.Port > 0 {
		gcfg = gcfg.WithPort(cfg.Port)
	}
	client, err := greptime.NewClient(gcfg)
	if err != nil {
		return nil, fmt.Errorf("greptime client: %w", err)
	}
	return newGreptimeRecorder(client, cfg, campaignID), nil
}

func newGreptimeRecorder(client greptimeClient, cfg GreptimeConfig, campaignID string) *GreptimeRecorder {
	cfg = cfg.WithDefaults()
	return &GreptimeRecorder{
		client:     client,
		campaignID: campaignID,
		inputs:     cfg.InputsTable,
		outputs:    cfg.OutputsTable,
		errors:     cfg.ErrorsTable,
		now:        time.Now,
	}
}

// WriteInput inserts a parameter draw.
func (w *GreptimeRecorder) WriteInput(in Input) error {
	params, err := json.Marshal(in.Parameters)
	if err != nil {
		return err
	}
	tbl, err := w.newTable(w.inputs)
	if err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("parameters", types.JSON); err != nil {
		return err
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return err
	}
	if err := tbl.AddRow(w.campaignID, int64(in.Trial), string(params), w.now()); err != nil {
		return err
	}
	return w.write(tbl)
}

// WriteOutput inserts the metrics of a successful trial.
func (w *GreptimeRecorder) WriteOutput(out Output) error {
	tbl, err := w.newTable(w.outputs)
	if err != nil {
		return err
	}
	fields := out.Metrics.Fields()
	row := []any{w.campaignID, int64(out.Trial)}
	for _, f := range fields {
		if err := tbl.AddFieldColumn(ColumnName(f.Name), types.FLOAT64); err != nil {
			return err
		}
		row = append(row, f.Value)
	}
	if err := tbl.AddFieldColumn("execution_time", types.FLOAT64); err != nil {
		return err
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return err
	}
	row = append(row, out.ExecutionTime, w.now())
	if err := tbl.AddRow(row...); err != nil {
		return err
	}
	return w.write(tbl)
}

// WriteError inserts a failed trial.
func (w *GreptimeRecorder) WriteError(e ErrorRecord) error {
	params, err := json.Marshal(e.Parameters)
	if err != nil {
		return err
	}
	tbl, err := w.newTable(w.errors)
	if err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("error", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("parameters", types.JSON); err != nil {
		return err
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return err
	}
	if err := tbl.AddRow(w.campaignID, int64(e.Trial), e.Error, string(params), w.now()); err != nil {
		return err
	}
	return w.write(tbl)
}

// newTable starts a table with the campaign tag and trial columns.
func (w *GreptimeRecorder) newTable(name string) (*table.Table, error) {
	tbl, err := table.New(name)
	if err != nil {
		return nil, err
	}
	if err := tbl.AddTagColumn("campaign_id", types.STRING); err != nil {
		return nil, err
	}
	if err := tbl.AddFieldColumn("trial", types.INT64); err != nil {
		return nil, err
	}
	return tbl, nil
}

func (w *GreptimeRecorder) write(tbl *table.Table) error {
	ctx, cancel := context.WithTimeout(context.Background(), greptimeWriteTimeout)
	defer cancel()
	if _, err := w.client.Write(ctx, tbl); err != nil {
		log.Printf("[GreptimeRecorder] Write failed: %v", err)
		return err
	}
	return nil
}

// ColumnName maps a record key such as "apogeeX" to its GreptimeDB column "apogee_x".
func ColumnName(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
