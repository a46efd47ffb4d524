// Package pipeline drives a file through the renaming stages: extract,
// match, resolve, build, post-process, propose, and finally commit or skip.
// Files fan out across a bounded worker group; rename commits are
// serialized.
package pipeline
