// Package record implements tagged field records, the serialized form of
// every quantgo entity.
//
// A record is an ordered list of named fields, tagged with a record kind
// string identifying the entity it was produced from. Field values are a
// closed set of kinds (float, int, bool, float slice, int slice); there are
// no open-ended dynamic dictionaries. Records encode through a codec.Codec
// and satisfy the round-trip law: decoding an encoded record yields a
// value-equal record.
package record
