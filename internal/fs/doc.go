// Package fs provides the file system abstraction the log and the publisher are written against.
//
//   - [LocalFS] is the production implementation backed by the os package. [Default] points to it.
//   - [FaultyFS] wraps another [FileSystem] and injects failures for selected files. Tests use it to simulate full
//     disks, failing fsyncs and crashes in the middle of a publish.
//   - [AferoFS] adapts an afero file system. [NewMemoryFS] keeps everything in memory.
//
// There are no context.Context parameters. Local file system calls are not interruptible at the syscall level.
package fs
