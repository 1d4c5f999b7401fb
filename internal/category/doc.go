// Package category classifies resolved links and manages the stored link
// sets.
//
// A Store holds a snapshot of the IP to category mapping. The snapshot is
// refreshed with Load at the start of every operation that depends on it,
// and tracking an IP updates both the persisted mapping and the snapshot.
// Link sets are persisted through the database package; the Store adds the
// per-category locking, retrieval and name matching on top.
package category
