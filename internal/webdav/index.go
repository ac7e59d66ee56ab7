package webdav

// keyedIndex 以 namespace -> local 两级键保存条目，保持插入顺序
type keyedIndex[T any] struct {
	namespaces []string
	entries    map[string]*namespaceEntries[T]
}

type namespaceEntries[T any] struct {
	names []string
	items map[string]T
}

func (k *keyedIndex[T]) put(namespace, local string, item T) {
	if k.entries == nil {
		k.entries = make(map[string]*namespaceEntries[T])
	}
	ns, ok := k.entries[namespace]
	if !ok {
		ns = &namespaceEntries[T]{items: make(map[string]T)}
		k.entries[namespace] = ns
		k.namespaces = append(k.namespaces, namespace)
	}
	if _, exists := ns.items[local]; !exists {
		ns.names = append(ns.names, local)
	}
	ns.items[local] = item
}

func (k *keyedIndex[T]) get(namespace, local string) (T, bool) {
	var zero T
	ns, ok := k.entries[namespace]
	if !ok {
		return zero, false
	}
	item, ok := ns.items[local]
	return item, ok
}

func (k *keyedIndex[T]) namespaceNames() []string {
	return append([]string(nil), k.namespaces...)
}

func (k *keyedIndex[T]) names(namespace string) []string {
	ns, ok := k.entries[namespace]
	if !ok {
		return []string{}
	}
	return append([]string(nil), ns.names...)
}

func (k *keyedIndex[T]) all() []T {
	var out []T
	for _, namespace := range k.namespaces {
		ns := k.entries[namespace]
		for _, name := range ns.names {
			out = append(out, ns.items[name])
		}
	}
	return out
}

func (k *keyedIndex[T]) len() int {
	n := 0
	for _, ns := range k.entries {
		n += len(ns.names)
	}
	return n
}
