// Package domain contains the core types of the harvester: the vertex kinds of
// the persisted graph, the entities fetched from both API generations, the
// configuration structure and the sentinel errors shared by every layer.
//
// Domain types carry no behaviour that touches the network or the database.
package domain
