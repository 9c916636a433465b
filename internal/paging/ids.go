package paging

// AppendUnique appends ids not already present in list, preserving order
func AppendUnique(list []string, ids ...string) []string {
	seen := make(map[string]struct{}, len(list)+len(ids))
	for _, id := range list {
		seen[id] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		list = append(list, id)
	}
	return list
}

// Unique returns ids with duplicates dropped, keeping first occurrences
func Unique(ids []string) []string {
	return AppendUnique(make([]string, 0, len(ids)), ids...)
}

// Prepend puts id at the front, removing any later occurrence
func Prepend(list []string, id string) []string {
	out := make([]string, 0, len(list)+1)
	out = append(out, id)
	for _, existing := range list {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}

// Remove drops every occurrence of id. The result is a new slice.
func Remove(list []string, id string) []string {
	out := make([]string, 0, len(list))
	for _, existing := range list {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}
