// Package core defines the curriculum graph model shared by the connection
// validator, the batch compiler, and the tooling around them: typed nodes
// (Track, Lesson, Skill, Tune), directional ports, and classified edges.
//
// The types here are plain data. Nothing in core mutates a graph; callers
// hand the validators an immutable snapshot per call.
package core
