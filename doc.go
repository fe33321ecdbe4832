// Package loom is a minimal model-to-table binding engine. A model declares
// its logical fields once with the schema/field builders; loom derives the
// physical column maps, the table definition and a filter grammar from that
// declaration and renders them against the bound driver's dialect, so the
// same model runs unchanged on the embedded, relational-strict, tabular and
// default backend families.
//
// Statement generation is split from execution: the dialect package holds
// the pure per-dialect policy (placeholders, quoting, type affinity,
// pagination), dialect/sql wraps database/sql behind the dialect.Driver
// interface, and Objects composes the two into the query surface
// (Filter, Get, All, Create, Update, Delete, Raw).
package loom
