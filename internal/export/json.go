// Package export provides formatting and output for contracts.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charterhq/charter/internal/contract"
	"github.com/charterhq/charter/internal/output"
)

// FormatJSON outputs the contracts as a JSON array to the printer.
func FormatJSON(printer *output.Printer, contracts []*contract.Contract) error {
	return printer.WriteJSON(contracts)
}

// WriteJSONFiles writes each contract as a separate JSON file to the output
// directory. Files are named <contract-id>.json.
func WriteJSONFiles(contracts []*contract.Contract, dir string) error {
	for _, c := range contracts {
		filename := filepath.Join(dir, c.ID+".json")

		data, err := json.MarshalIndent(c, "", "  ")
		if err != nil {
			return output.NewSystemError(fmt.Sprintf("failed to marshal contract %s: %v", c.ID, err))
		}

		if err := os.WriteFile(filename, data, 0600); err != nil {
			return output.NewSystemError(fmt.Sprintf("failed to write file %s: %v", filename, err))
		}
	}

	return nil
}
