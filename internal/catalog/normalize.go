package catalog

// normalize reshapes filtered generic options into the provider's native
// parameter set. Each branch is a pure function of the option bag; an empty
// result is returned as nil so callers can skip the payload entirely.
func normalize(e *Entry, opts map[string]any) map[string]any {
	if len(opts) == 0 {
		return nil
	}
	switch e.Provider {
	case ProviderOpenAI:
		return normalizeOpenAI(opts)
	case ProviderGoogle:
		return normalizeGoogle(opts)
	case ProviderXAI:
		return normalizeXAI(opts)
	}
	return nil
}

func normalizeOpenAI(opts map[string]any) map[string]any {
	out := make(map[string]any)
	if v, ok := opts["reasoning"].(string); ok {
		out["reasoning_effort"] = v
	}
	if v, ok := opts["reasoningSummary"].(string); ok {
		out["reasoning_summary"] = v
	}
	if v, ok := opts["quality"].(string); ok {
		out["quality"] = v
	}
	if v, ok := opts["background"].(string); ok {
		out["background"] = v
	}
	if v, ok := opts["size"].(string); ok {
		out["size"] = v
	}
	if v, ok := opts["voice"].(string); ok {
		out["voice"] = v
	}
	if v, ok := opts["speed"]; ok {
		out["speed"] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func normalizeGoogle(opts map[string]any) map[string]any {
	out := make(map[string]any)
	// The generic boolean becomes a token-budget object on this provider.
	if v, ok := opts["thinking"].(bool); ok && v {
		out["thinkingConfig"] = map[string]any{"thinkingBudget": 2048}
	}
	if v, ok := opts["search"].(bool); ok && v {
		out["useSearchGrounding"] = true
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func normalizeXAI(opts map[string]any) map[string]any {
	out := make(map[string]any)
	// xAI speaks the OpenAI wire format, so the key matches.
	if v, ok := opts["reasoning"].(string); ok {
		out["reasoning_effort"] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
