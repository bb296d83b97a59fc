// Package temporal implements the temporal column model used by every snapcli
// report: snapshot-dated column names are tagged, grouped into clusters per
// measured quantity, rows are filtered and ordered against those clusters,
// unchanged-since-last-snapshot cells are flagged and numeric series are
// extracted for charting.
//
// # Column names
//
// A snapshot column carries its date as a leading MMDDYYYY token:
//
//	01082024_LastWk      -> date 2024-01-08, metric "LastWk"
//	01082024_Login_Date  -> date 2024-01-08, metric "Login_Date"
//	Oper                 -> identity column (when configured)
//	Region               -> opaque, passed through untouched
//
// # Data Flow
//
//	raw columns → Tagger → Assemble (column order, clusters)
//	            → DropBlankInCluster / SortRows (row set)
//	            → DetectStale (annotations) → Table
//
// GatherSeries reads tagged columns independently of Build and may run on
// tables that were never assembled.
//
// Every stage is a pure function over its input; nothing here touches files.
// Decisions that skip, drop or fall back are logged through the *slog.Logger
// handed to the stage, so callers can attach group and sheet attributes.
package temporal
