package journals

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"strconv"
)

// utf8BOM prefixes exports so spreadsheet tools detect the encoding.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var exportHeader = []string{"entry_id", "source", "source_id", "effective_date", "branch_id", "account_id", "debit", "credit"}

// Export renders the filtered ledger as CSV bytes plus the SHA-256 hex
// digest of those bytes. Output is byte-for-byte deterministic for fixed
// filters and data: stable sort, fixed columns, fixed two-decimal
// formatting, CRLF rows. The digest is surfaced as an audit artifact.
func (s *Service) Export(ctx context.Context, orgID int64, f Filters) ([]byte, string, error) {
	entries, err := s.repo.ListWithLines(ctx, orgID, f)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	buf.Write(utf8BOM)
	writer := csv.NewWriter(&buf)
	writer.UseCRLF = true
	if err := writer.Write(exportHeader); err != nil {
		return nil, "", err
	}
	for _, entry := range entries {
		branch := ""
		if entry.BranchID != nil {
			branch = strconv.FormatInt(*entry.BranchID, 10)
		}
		for _, line := range entry.Lines {
			record := []string{
				strconv.FormatInt(entry.ID, 10),
				entry.SourceTag,
				entry.SourceID.String(),
				entry.EffectiveDate.Format("2006-01-02"),
				branch,
				strconv.FormatInt(line.AccountID, 10),
				line.Debit.StringFixed(2),
				line.Credit.StringFixed(2),
			}
			if err := writer.Write(record); err != nil {
				return nil, "", err
			}
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", err
	}

	digest := sha256.Sum256(buf.Bytes())
	return buf.Bytes(), hex.EncodeToString(digest[:]), nil
}
