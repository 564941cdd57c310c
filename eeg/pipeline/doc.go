// Package pipeline sequences the preprocessing stages over one recording.
//
// Every stage takes a recording and returns a new one; the caller keeps
// whichever versions it needs. Stages run one after another in the calling
// goroutine, and the context is checked between stages. Any stage error
// aborts the run, wrapped with the stage name. Soft conditions such as an
// absent bad-channel candidate or a missing EOG channel are logged and
// handled by a fallback.
package pipeline
