// Package files finds snapshot workbooks on disk and decides which one a
// group should process.
//
// Discovery expands configured glob patterns into groups (one directory per
// group) and lists the workbooks inside each. Selector ranks a group's
// workbooks by recency: a MMDDYYYY_HH_MM timestamp embedded in the file name
// wins over the modification time, and names containing an ignore substring
// (outputs of earlier runs) are never eligible.
//
// Example usage:
//
//	discovery := files.NewDiscovery("/data", ".xlsx")
//	groups, err := discovery.DiscoverGroups([]string{"Report_by_cono/Cono*"})
//
//	workbooks, err := discovery.FindWorkbooks(groups[0].Dir)
//	latest, ok := files.NewSelector([]string{"_graph"}, time.Local, logger).Pick(workbooks)
package files
