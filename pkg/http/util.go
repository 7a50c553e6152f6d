package http

import (
	xutil "MacroPull/pkg/util"
)

// ParseIDs splits a comma separated id list from a query parameter.
func ParseIDs(s string) []string { return xutil.SplitList(s) }
