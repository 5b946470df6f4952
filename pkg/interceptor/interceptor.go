// Package interceptor implements the Write Interceptor: a stacking FUSE
// filesystem that passes every operation straight through to a backing
// directory on disk, except writes, which are routed through the backup
// manager and detector before they are allowed to reach the backing file.
//
// The node/handle split (a Node embedding fs.Inode, paired with a FileHandle
// returned from Open) and the passthrough-to-a-real-directory approach are
// adapted from an object-storage-backed FUSE filesystem; here the backend
// is simply the local filesystem beneath storage_root rather than a remote
// object store.
package interceptor

import (
	"context"
	"os"
	"sync"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/sentinelfs/sentinelfs/pkg/detector"
	"github.com/sentinelfs/sentinelfs/pkg/sentinel"
)

// Root is the filesystem root. Root() constructs the top-level Node.
type Root struct {
	ctx *sentinel.Context
}

// NewRoot constructs the filesystem root from a mount context.
func NewRoot(ctx *sentinel.Context) *Root {
	return &Root{ctx: ctx}
}

// Root satisfies fs.InodeEmbedder's factory requirement indirectly: callers
// pass the *Node returned here to fs.Mount as the tree root.
func (r *Root) Root() fs.InodeEmbedder {
	return &Node{root: r, relativePath: ""}
}

// Node represents a single file or directory, backed by a real path beneath
// the mount context's storage root. The same type serves both files and
// directories, matching the backing filesystem's own uniformity, rather
// than splitting into separate directory/file node types.
type Node struct {
	fs.Inode

	root *Root

	// relativePath is the path of this node relative to storage_root,
	// using forward slashes, with no leading slash.
	relativePath string
}

var (
	_ fs.NodeLookuper  = (*Node)(nil)
	_ fs.NodeReaddirer = (*Node)(nil)
	_ fs.NodeGetattrer = (*Node)(nil)
	_ fs.NodeSetattrer = (*Node)(nil)
	_ fs.NodeOpener    = (*Node)(nil)
	_ fs.NodeCreater   = (*Node)(nil)
	_ fs.NodeMkdirer   = (*Node)(nil)
	_ fs.NodeUnlinker  = (*Node)(nil)
	_ fs.NodeRmdirer   = (*Node)(nil)
	_ fs.NodeRenamer   = (*Node)(nil)
)

// backingPath returns the absolute path of this node in the backing store.
func (n *Node) backingPath() string {
	return n.root.ctx.TranslatePath(n.relativePath)
}

// child returns the relative path of a named child of this node.
func (n *Node) child(name string) string {
	if n.relativePath == "" {
		return name
	}
	return n.relativePath + "/" + name
}

// Lookup resolves a child by name against the backing store.
func (n *Node) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	childRelative := n.child(name)
	backing := n.root.ctx.TranslatePath(childRelative)

	info, err := os.Lstat(backing)
	if err != nil {
		return nil, fs.ToErrno(err)
	}

	fillAttrOut(info, &out.Attr)

	child := &Node{root: n.root, relativePath: childRelative}
	stable := fs.StableAttr{Mode: modeToFuseType(info.Mode())}
	return n.NewInode(ctx, child, stable), 0
}

// Readdir lists the backing directory's contents.
func (n *Node) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	entries, err := os.ReadDir(n.backingPath())
	if err != nil {
		return nil, fs.ToErrno(err)
	}

	result := make([]fuse.DirEntry, 0, len(entries))
	for _, e := range entries {
		mode := fuse.S_IFREG
		if e.IsDir() {
			mode = fuse.S_IFDIR
		}
		result = append(result, fuse.DirEntry{Name: e.Name(), Mode: uint32(mode)})
	}
	return fs.NewListDirStream(result), 0
}

// Getattr stats the backing path.
func (n *Node) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	info, err := os.Lstat(n.backingPath())
	if err != nil {
		return fs.ToErrno(err)
	}
	fillAttrOut(info, &out.Attr)
	return 0
}

// Setattr implements truncate, chmod, and chown by applying the requested
// changes directly to the backing path.
func (n *Node) Setattr(ctx context.Context, fh fs.FileHandle, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	backing := n.backingPath()

	if size, ok := in.GetSize(); ok {
		if err := os.Truncate(backing, int64(size)); err != nil {
			return fs.ToErrno(err)
		}
	}
	if mode, ok := in.GetMode(); ok {
		if err := os.Chmod(backing, os.FileMode(mode).Perm()); err != nil {
			return fs.ToErrno(err)
		}
	}
	uid, hasUID := in.GetUID()
	gid, hasGID := in.GetGID()
	if hasUID || hasGID {
		resolvedUID, resolvedGID := -1, -1
		if hasUID {
			resolvedUID = int(uid)
		}
		if hasGID {
			resolvedGID = int(gid)
		}
		if err := os.Chown(backing, resolvedUID, resolvedGID); err != nil {
			return fs.ToErrno(err)
		}
	}

	info, err := os.Lstat(backing)
	if err != nil {
		return fs.ToErrno(err)
	}
	fillAttrOut(info, &out.Attr)
	return 0
}

// Open opens the backing file and returns a FileHandle through which all
// reads and writes for this open instance are served.
func (n *Node) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	file, err := os.OpenFile(n.backingPath(), int(flags)&^os.O_CREATE, 0)
	if err != nil {
		return nil, 0, fs.ToErrno(err)
	}
	// direct_io bypasses the kernel page cache so every read reaches this
	// handle, and every write the detector evaluates is the one the kernel
	// actually sends, with nothing served from a stale cached copy.
	return &FileHandle{node: n, file: file}, fuse.FOPEN_DIRECT_IO, 0
}

// Create creates a new backing file and opens it.
func (n *Node) Create(ctx context.Context, name string, flags uint32, mode uint32, out *fuse.EntryOut) (*fs.Inode, fs.FileHandle, uint32, syscall.Errno) {
	childRelative := n.child(name)
	backing := n.root.ctx.TranslatePath(childRelative)

	file, err := os.OpenFile(backing, int(flags)|os.O_CREATE, os.FileMode(mode).Perm())
	if err != nil {
		return nil, nil, 0, fs.ToErrno(err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, nil, 0, fs.ToErrno(err)
	}
	fillAttrOut(info, &out.Attr)

	child := &Node{root: n.root, relativePath: childRelative}
	inode := n.NewInode(ctx, child, fs.StableAttr{Mode: modeToFuseType(info.Mode())})

	return inode, &FileHandle{node: child, file: file}, fuse.FOPEN_DIRECT_IO, 0
}

// Mkdir creates a backing directory.
func (n *Node) Mkdir(ctx context.Context, name string, mode uint32, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	childRelative := n.child(name)
	backing := n.root.ctx.TranslatePath(childRelative)

	if err := os.Mkdir(backing, os.FileMode(mode).Perm()); err != nil {
		return nil, fs.ToErrno(err)
	}
	info, err := os.Lstat(backing)
	if err != nil {
		return nil, fs.ToErrno(err)
	}
	fillAttrOut(info, &out.Attr)

	child := &Node{root: n.root, relativePath: childRelative}
	return n.NewInode(ctx, child, fs.StableAttr{Mode: fuse.S_IFDIR}), 0
}

// Unlink removes a backing file.
func (n *Node) Unlink(ctx context.Context, name string) syscall.Errno {
	return fs.ToErrno(os.Remove(n.root.ctx.TranslatePath(n.child(name))))
}

// Rmdir removes a backing directory.
func (n *Node) Rmdir(ctx context.Context, name string) syscall.Errno {
	return fs.ToErrno(os.Remove(n.root.ctx.TranslatePath(n.child(name))))
}

// Rename renames within the backing store. Cross-directory renames are
// resolved by translating both the source and destination parents.
func (n *Node) Rename(ctx context.Context, name string, newParent fs.InodeEmbedder, newName string, flags uint32) syscall.Errno {
	destinationParent, ok := newParent.(*Node)
	if !ok {
		return syscall.EXDEV
	}
	oldBacking := n.root.ctx.TranslatePath(n.child(name))
	newBacking := n.root.ctx.TranslatePath(destinationParent.child(newName))
	return fs.ToErrno(os.Rename(oldBacking, newBacking))
}

// FileHandle serves reads and writes for a single open backing file.
type FileHandle struct {
	node *Node

	mu   sync.Mutex
	file *os.File
}

var (
	_ fs.FileReader  = (*FileHandle)(nil)
	_ fs.FileWriter  = (*FileHandle)(nil)
	_ fs.FileFlusher = (*FileHandle)(nil)
	_ fs.FileReleaser = (*FileHandle)(nil)
	_ fs.FileFsyncer = (*FileHandle)(nil)
)

// Read serves a read directly from the backing file.
func (h *FileHandle) Read(ctx context.Context, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	n, err := h.file.ReadAt(dest, off)
	if err != nil && n == 0 {
		return nil, fs.ToErrno(err)
	}
	return fuse.ReadResultData(dest[:n]), 0
}

// Write is the write path's choke point: backup, then detect, then write.
// The ordering is fixed and sequential per the state machine the Write
// Interceptor implements — a backup that is skipped or fails never blocks
// the write, but a blocked write never reaches the backing file.
func (h *FileHandle) Write(ctx context.Context, data []byte, off int64) (uint32, syscall.Errno) {
	h.mu.Lock()
	defer h.mu.Unlock()

	backing := h.node.backingPath()
	relative := h.node.relativePath

	if !h.node.root.ctx.Exclude.Excluded(relative) {
		h.node.root.ctx.Backup.MaybeBackup(backing, off)

		decision := h.node.root.ctx.Detector.Classify(data)
		if decision.Verdict == detector.Block {
			return 0, syscall.EIO
		}
	}

	n, err := h.file.WriteAt(data, off)
	if err != nil {
		return uint32(n), fs.ToErrno(err)
	}
	return uint32(n), 0
}

// Flush flushes the backing file descriptor.
func (h *FileHandle) Flush(ctx context.Context) syscall.Errno {
	// Dup-then-close mirrors the kernel's own FLUSH semantics (every
	// close(2) on a dup'd descriptor triggers FLUSH, not just the last).
	fd, err := syscall.Dup(int(h.file.Fd()))
	if err != nil {
		return fs.ToErrno(err)
	}
	return fs.ToErrno(syscall.Close(fd))
}

// Release closes the backing file descriptor.
func (h *FileHandle) Release(ctx context.Context) syscall.Errno {
	h.mu.Lock()
	defer h.mu.Unlock()
	return fs.ToErrno(h.file.Close())
}

// Fsync flushes the backing file to stable storage.
func (h *FileHandle) Fsync(ctx context.Context, flags uint32) syscall.Errno {
	return fs.ToErrno(h.file.Sync())
}

func modeToFuseType(mode os.FileMode) uint32 {
	if mode.IsDir() {
		return fuse.S_IFDIR
	}
	if mode&os.ModeSymlink != 0 {
		return fuse.S_IFLNK
	}
	return fuse.S_IFREG
}

func fillAttrOut(info os.FileInfo, attr *fuse.Attr) {
	attr.Mode = uint32(info.Mode().Perm()) | modeToFuseType(info.Mode())
	attr.Size = uint64(info.Size())
	mtime := info.ModTime().Unix()
	attr.Mtime = uint64(mtime)
	attr.Atime = uint64(mtime)
	attr.Ctime = uint64(mtime)
}
