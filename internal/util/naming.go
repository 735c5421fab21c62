package util

import (
	"fmt"
	"time"
)

// GenerateTaskID generates the run-wide task ID, e.g. 20250914_26154233.
func GenerateTaskID() string {
	now := time.Now()
	dateStr := now.Format("20060102")
	tsStr := fmt.Sprintf("%d", now.Unix())
	shortTS := tsStr[len(tsStr)-8:]
	return fmt.Sprintf("%s_%s", dateStr, shortTS)
}

// GenerateTableName generates the SQLite table name for a run.
func GenerateTableName(taskID string) string {
	return fmt.Sprintf("task_%s", taskID)
}

// GenerateCSVFileName generates a CSV file name for a run stage.
func GenerateCSVFileName(taskID, suffix string) string {
	return fmt.Sprintf("%s_%s.csv", taskID, suffix)
}

// GenerateTXTFileName generates a TXT file name for a run stage.
func GenerateTXTFileName(taskID, suffix string) string {
	return fmt.Sprintf("%s_%s.txt", taskID, suffix)
}

// GenerateProjectDir generates the per-run results directory name.
func GenerateProjectDir(taskID string) string {
	return fmt.Sprintf("%s_%s", taskID[:8], taskID[9:])
}
