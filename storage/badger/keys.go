package badger

// Key prefixes for different data types
const (
	collectionPrefix = "veccol"
	pointPrefix      = "vecpt"
)

// makeCollectionKey generates the key holding a collection's configuration.
// Format: veccol:name
func makeCollectionKey(name string) []byte {
	return []byte(collectionPrefix + ":" + name)
}

// makePointPrefix generates the prefix shared by every point of a collection.
// Format: vecpt:name:
// The trailing separator keeps "news" from matching points of "news_v2".
func makePointPrefix(collection string) []byte {
	return []byte(pointPrefix + ":" + collection + ":")
}

// makePointKey generates the key for a point in a collection.
// Format: vecpt:name:id
func makePointKey(collection, id string) []byte {
	return append(makePointPrefix(collection), id...)
}
