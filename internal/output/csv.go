package output

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/pubtrend/pubtrend/internal/trends"
)

func writeTrendCSV(path string, counts []trends.PublicationYearCount) error {
	rows := [][]string{{"year", "n_pub"}}
	for _, c := range counts {
		rows = append(rows, []string{strconv.Itoa(c.Year), strconv.Itoa(c.PublicationCount)})
	}
	return writeCSV(path, rows)
}

func writeInstitutionsCSV(path string, institutions []string) error {
	rows := [][]string{{"institution"}}
	for _, inst := range institutions {
		rows = append(rows, []string{inst})
	}
	return writeCSV(path, rows)
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return f.Close()
}
