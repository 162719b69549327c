package export

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/banrai-farm/duriantrack/backend/internal/farm"
)

const (
	sheetTrees = "Trees"
	sheetLogs  = "Logs"
	sheetCosts = "Costs"

	dateLayout = "2006-01-02"
)

// ReportData is the snapshot a farm report is built from. Callers assemble it
// from the farm service so the builder stays free of I/O.
type ReportData struct {
	Plots    []farm.Plot
	Sections []farm.Section
	Trees    []farm.Tree
	Logs     []farm.TreeLog
	Costs    []farm.CostRecord
}

// BuildFarmReport renders the snapshot into an xlsx workbook with one sheet
// each for trees, logs, and costs.
func BuildFarmReport(data ReportData) (*excelize.File, error) {
	workbook := excelize.NewFile()

	sectionCodes := make(map[string]string, len(data.Sections))
	for _, section := range data.Sections {
		sectionCodes[section.ID] = section.SectionCode
	}
	treeCodes := make(map[string]string, len(data.Trees))
	for _, tree := range data.Trees {
		treeCodes[tree.ID] = tree.TreeCode
	}

	if err := writeTreeSheet(workbook, data.Trees, sectionCodes); err != nil {
		return nil, err
	}
	if err := writeLogSheet(workbook, data.Logs, treeCodes); err != nil {
		return nil, err
	}
	if err := writeCostSheet(workbook, data.Costs, treeCodes); err != nil {
		return nil, err
	}

	// The default sheet excelize creates is replaced by Trees.
	workbook.DeleteSheet(workbook.GetSheetName(0))
	if index, err := workbook.GetSheetIndex(sheetTrees); err == nil {
		workbook.SetActiveSheet(index)
	}
	return workbook, nil
}

func writeTreeSheet(workbook *excelize.File, trees []farm.Tree, sectionCodes map[string]string) error {
	if _, err := workbook.NewSheet(sheetTrees); err != nil {
		return err
	}
	header := []interface{}{"Tree Code", "Section", "Variety", "Status", "Blooming", "Fruit Count", "Planted", "Death Date"}
	if err := workbook.SetSheetRow(sheetTrees, "A1", &header); err != nil {
		return err
	}
	for index, tree := range trees {
		deathDate := ""
		if tree.DeathDate != nil {
			deathDate = tree.DeathDate.Format(dateLayout)
		}
		row := []interface{}{
			tree.TreeCode,
			sectionCodes[tree.SectionID],
			tree.Variety,
			string(tree.Status),
			string(tree.BloomingStatus),
			tree.FruitCount,
			tree.PlantedDate.Format(dateLayout),
			deathDate,
		}
		cell := fmt.Sprintf("A%d", index+2)
		if err := workbook.SetSheetRow(sheetTrees, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func writeLogSheet(workbook *excelize.File, logs []farm.TreeLog, treeCodes map[string]string) error {
	if _, err := workbook.NewSheet(sheetLogs); err != nil {
		return err
	}
	header := []interface{}{"Date", "Tree Code", "Activity", "Health", "Fertilizer", "Notes"}
	if err := workbook.SetSheetRow(sheetLogs, "A1", &header); err != nil {
		return err
	}
	for index, entry := range logs {
		row := []interface{}{
			entry.LogDate.Format(dateLayout),
			treeCodes[entry.TreeID],
			entry.ActivityType,
			entry.HealthStatus,
			entry.FertilizerType,
			entry.Notes,
		}
		cell := fmt.Sprintf("A%d", index+2)
		if err := workbook.SetSheetRow(sheetLogs, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func writeCostSheet(workbook *excelize.File, costs []farm.CostRecord, treeCodes map[string]string) error {
	if _, err := workbook.NewSheet(sheetCosts); err != nil {
		return err
	}
	header := []interface{}{"Date", "Category", "Description", "Tree Code", "Amount"}
	if err := workbook.SetSheetRow(sheetCosts, "A1", &header); err != nil {
		return err
	}
	total := decimal.Zero
	for index, record := range costs {
		treeCode := ""
		if record.TreeID != nil {
			treeCode = treeCodes[*record.TreeID]
		}
		row := []interface{}{
			record.CostDate.Format(dateLayout),
			record.Category,
			record.Description,
			treeCode,
			record.Amount.StringFixed(2),
		}
		cell := fmt.Sprintf("A%d", index+2)
		if err := workbook.SetSheetRow(sheetCosts, cell, &row); err != nil {
			return err
		}
		total = total.Add(record.Amount)
	}
	totalRow := []interface{}{"", "", "", "Total", total.StringFixed(2)}
	cell := fmt.Sprintf("A%d", len(costs)+2)
	return workbook.SetSheetRow(sheetCosts, cell, &totalRow)
}
