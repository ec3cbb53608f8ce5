/*
Package metafile reads and writes metadata records.

A metadata record is the sidecar file kept next to a catalog or a changeset
archive. It holds named sections of key/value fields, in an INI layout:

	[changeset]
	is_base          = False
	hash             = 5e1c…
	modification_utc = 2024-03-01 10:12:44.031337
	filename         = cloud.lrcat_5e1c….zip

	[parent]
	...

Values are typed when read: True/False become booleans, timestamps become
UTC times and anything else remains a string. A "filename" field is always
handed out as an absolute path anchored at the directory of the record.

Records are used in two shapes: ChangesetRecord describes a node of the
shared history, CheckpointRecord describes the local catalog and the last
changeset it was synchronized with.
*/
package metafile
