// Package container locates baseline tables.
//
// A Container is a read-only source of unmodified tables: a directory holding
// an extracted archive (DirContainer) or a prefix of an object-storage bucket
// (BucketContainer). The Locator searches its containers in order and returns
// the first match; when none holds the table the error wraps ErrNotFound and
// the table is left unmerged.
//
// # Usage
//
//	loc := container.NewLocator(logg,
//	    container.NewDirContainer("extracted/data"),
//	    container.NewDirContainer("extracted/patch1"),
//	)
//	id, baseline, err := loc.FindBaseline(ctx, "BATTLE/TABLE/SKILL.TBL")
//	if errors.Is(err, container.ErrNotFound) {
//	    // skip the table
//	}
package container
