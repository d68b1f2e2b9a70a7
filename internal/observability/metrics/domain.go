package metrics

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

// RecordAssemble records a configuration assembly.
func RecordAssemble(ok bool) {
	if !enabled {
		return
	}
	assembleTotal.WithLabelValues(result(ok)).Inc()
}

// RecordPreflightCheck records the outcome of one preflight check.
func RecordPreflightCheck(network, check string, passed bool) {
	if !enabled {
		return
	}
	preflightCheckTotal.WithLabelValues(network, check, result(passed)).Inc()
}

// RecordExplorerRequest records an explorer API request.
func RecordExplorerRequest(network string, ok bool) {
	if !enabled {
		return
	}
	explorerRequestTotal.WithLabelValues(network, result(ok)).Inc()
}
