// Package shared holds helpers used across snapcli packages.
//
// The testutil subpackage provides:
//
//   - a buffered slog handler with log assertions
//   - workbook fixtures written and read back through excelize
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    path := testutil.WriteWorkbook(t, filepath.Join(t.TempDir(), "in.xlsx"),
//	        testutil.Sheet{Name: "Data", Rows: [][]string{{"Oper", "01012025_Logins"}}})
//	    // ...
//	    testutil.AssertLogContains(t, logs, slog.LevelInfo, "Group completed")
//	}
package shared
