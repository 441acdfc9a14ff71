package statements

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/pharos-erp/pharos-erp/internal/ledger/reports"
)

const (
	csvFlushEvery = 200
	csvBufferSize = 32 * 1024
)

// csvPrinter renders amounts with grouped thousands so exports open
// cleanly in spreadsheet tools.
var csvPrinter = message.NewPrinter(language.English)

type csvStreamer struct {
	buf          *bufio.Writer
	csv          *csv.Writer
	flushEvery   int
	pendingLines int
}

func newCSVStreamer(w io.Writer) *csvStreamer {
	buf := bufio.NewWriterSize(w, csvBufferSize)
	writer := csv.NewWriter(buf)
	writer.UseCRLF = true
	return &csvStreamer{buf: buf, csv: writer, flushEvery: csvFlushEvery}
}

func (s *csvStreamer) writeComment(line string) error {
	if s == nil || s.buf == nil {
		return fmt.Errorf("csv streamer not initialised")
	}
	if !strings.HasSuffix(line, "\r\n") {
		line = strings.TrimSuffix(line, "\n")
		line += "\r\n"
	}
	_, err := s.buf.WriteString(line)
	return err
}

func (s *csvStreamer) writeRow(row []string) error {
	if s == nil || s.csv == nil {
		return fmt.Errorf("csv streamer not initialised")
	}
	if err := s.csv.Write(row); err != nil {
		return err
	}
	s.pendingLines++
	if s.flushEvery > 0 && s.pendingLines >= s.flushEvery {
		return s.Flush()
	}
	return nil
}

func (s *csvStreamer) Flush() error {
	if s == nil || s.csv == nil || s.buf == nil {
		return fmt.Errorf("csv streamer not initialised")
	}
	s.csv.Flush()
	if err := s.csv.Error(); err != nil {
		return err
	}
	if err := s.buf.Flush(); err != nil {
		return err
	}
	s.pendingLines = 0
	return nil
}

func (s *csvStreamer) Close() error {
	return s.Flush()
}

func writeBalanceSheetCSV(w io.Writer, snap BalanceSheetSnapshot) error {
	streamer := newCSVStreamer(w)
	if err := writeSnapshotMetadata(streamer, "Balance Sheet", snap.RunID, snap.GeneratedAt, snap.AsOf, snap.AsOf); err != nil {
		return err
	}
	if err := streamer.writeRow([]string{"Section", "Account Code", "Account Name", "Amount"}); err != nil {
		return err
	}
	sections := []reports.BalanceSheetSection{snap.Report.Assets, snap.Report.Liabilities, snap.Report.Equity}
	for _, section := range sections {
		for _, account := range section.Accounts {
			if err := streamer.writeRow([]string{
				section.Label,
				strconv.FormatInt(account.Code, 10),
				account.Name,
				formatAmount(account.Amount),
			}); err != nil {
				return err
			}
		}
	}
	if err := streamer.writeRow([]string{"", "", "", ""}); err != nil {
		return err
	}
	totalsRows := [][]string{
		{"Totals", "", "Assets", formatAmount(snap.Report.Assets.Total)},
		{"Totals", "", "Liabilities", formatAmount(snap.Report.Liabilities.Total)},
		{"Totals", "", "Equity", formatAmount(snap.Report.Equity.Total)},
	}
	for _, row := range totalsRows {
		if err := streamer.writeRow(row); err != nil {
			return err
		}
	}
	return streamer.Close()
}

func writeIncomeStatementCSV(w io.Writer, snap IncomeStatementSnapshot) error {
	streamer := newCSVStreamer(w)
	if err := writeSnapshotMetadata(streamer, "Income Statement", snap.RunID, snap.GeneratedAt, snap.From, snap.To); err != nil {
		return err
	}
	if err := streamer.writeRow([]string{"Section", "Account Code", "Account Name", "Amount"}); err != nil {
		return err
	}
	for _, section := range []reports.IncomeStatementSection{snap.Report.Revenue, snap.Report.Expense} {
		for _, account := range section.Accounts {
			if err := streamer.writeRow([]string{
				section.Label,
				strconv.FormatInt(account.Code, 10),
				account.Name,
				formatAmount(account.Amount),
			}); err != nil {
				return err
			}
		}
	}
	if err := streamer.writeRow([]string{"", "", "", ""}); err != nil {
		return err
	}
	totalsRows := [][]string{
		{"Totals", "", "Revenue", formatAmount(snap.Report.Revenue.Total)},
		{"Totals", "", "Expense", formatAmount(snap.Report.Expense.Total)},
		{"Totals", "", "Net Income", formatAmount(snap.Report.NetIncome)},
	}
	for _, row := range totalsRows {
		if err := streamer.writeRow(row); err != nil {
			return err
		}
	}
	return streamer.Close()
}

func writeCashFlowCSV(w io.Writer, snap CashFlowSnapshot) error {
	streamer := newCSVStreamer(w)
	if err := writeSnapshotMetadata(streamer, "Cash Flow Statement", snap.RunID, snap.GeneratedAt, snap.From, snap.To); err != nil {
		return err
	}
	if err := streamer.writeRow([]string{"Date", "Description", "Cash Account", "Counterpart", "Activity", "Amount"}); err != nil {
		return err
	}
	for _, movement := range snap.Report.Movements {
		if err := streamer.writeRow([]string{
			movement.Date.Format("2006-01-02"),
			movement.Description,
			movement.CashAccountName,
			movement.CounterAccountName,
			string(movement.Bucket),
			formatAmount(movement.Amount),
		}); err != nil {
			return err
		}
	}
	if err := streamer.writeRow([]string{"", "", "", "", "", ""}); err != nil {
		return err
	}
	totalsRows := [][]string{
		{"Totals", "", "", "", "Operating", formatAmount(snap.Report.Operating)},
		{"Totals", "", "", "", "Investing", formatAmount(snap.Report.Investing)},
		{"Totals", "", "", "", "Financing", formatAmount(snap.Report.Financing)},
		{"Totals", "", "", "", "Net Increase", formatAmount(snap.Report.NetIncrease)},
	}
	for _, row := range totalsRows {
		if err := streamer.writeRow(row); err != nil {
			return err
		}
	}
	return streamer.Close()
}

func writeSnapshotMetadata(streamer *csvStreamer, reportName, runID string, generatedAt time.Time, from, to *time.Time) error {
	if err := streamer.writeComment(fmt.Sprintf("# Report: %s", reportName)); err != nil {
		return err
	}
	period := "all"
	switch {
	case from != nil && to != nil:
		period = from.Format("2006-01-02") + ".." + to.Format("2006-01-02")
	case from != nil:
		period = "from " + from.Format("2006-01-02")
	case to != nil:
		period = "to " + to.Format("2006-01-02")
	}
	return streamer.writeComment(fmt.Sprintf("# Run: %s | Period: %s | Generated: %s",
		runID, period, generatedAt.UTC().Format(time.RFC3339)))
}

func formatAmount(v decimal.Decimal) string {
	f, _ := v.Round(2).Float64()
	return csvPrinter.Sprintf("%.2f", f)
}
