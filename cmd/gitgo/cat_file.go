package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jaredkent/gitgo/object"
	"github.com/jaredkent/gitgo/objstore"
	"github.com/jaredkent/gitgo/refs"
	"github.com/spf13/cobra"
	"golang.org/x/xerrors"
)

var errBadFile = errors.New("bad file")

func newCatFileCmd(cfg *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cat-file [TYPE] OBJECT",
		Short: "Provide content or type and size information for repository objects",
		Args:  cobra.RangeArgs(1, 2),
	}

	typeOnly := cmd.Flags().BoolP("t", "t", false, "Instead of the content, show the object type identified by <object>.")
	sizeOnly := cmd.Flags().BoolP("s", "s", false, "Instead of the content, show the object size identified by <object>.")
	prettyPrint := cmd.Flags().BoolP("p", "p", false, "Pretty-print the contents of <object> based on its type.")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		p := catFileParams{
			typeOnly:    *typeOnly,
			sizeOnly:    *sizeOnly,
			prettyPrint: *prettyPrint,
			objectName:  args[0],
		}
		if len(args) == 2 {
			p.typ = args[0]
			p.objectName = args[1]
		}
		return catFileCmd(cmd.OutOrStdout(), cfg, p)
	}
	return cmd
}

type catFileParams struct {
	typeOnly    bool
	sizeOnly    bool
	prettyPrint bool
	objectName  string
	typ         string
}

func catFileCmd(out io.Writer, cfg *globalFlags, p catFileParams) error {
	if p.typ != "" && (p.typeOnly || p.sizeOnly || p.prettyPrint) {
		return errors.New("fatal: type not supported together with -t, -s or -p")
	}
	if p.typ == "" && !p.typeOnly && !p.sizeOnly && !p.prettyPrint {
		return errors.New("fatal: a type or one of -t, -s, -p is required")
	}

	r, err := loadRepository(cfg)
	if err != nil {
		return err
	}

	oid, err := resolveObjectName(r.Objects, r, p.objectName)
	if err != nil {
		return fmt.Errorf("fatal: not a valid object name %s", p.objectName)
	}

	o, err := r.GetObject(oid)
	if err != nil {
		return fmt.Errorf("fatal: not a valid object name %s", p.objectName)
	}

	if p.typ != "" {
		if _, typErr := object.NewTypeFromString(p.typ); typErr != nil {
			return fmt.Errorf("fatal: %s: %w", p.typ, typErr)
		}
		if o.Type().String() != p.typ {
			return fmt.Errorf("fatal: %s: %w", p.objectName, errBadFile)
		}
	}

	switch {
	case p.sizeOnly:
		fmt.Fprintln(out, strconv.Itoa(o.Size()))
	case p.typeOnly:
		fmt.Fprintln(out, o.Type().String())
	case p.prettyPrint:
		return prettyPrintObject(out, o)
	default:
		fmt.Fprint(out, string(o.Bytes()))
	}
	return nil
}

func prettyPrintObject(out io.Writer, o *object.Object) error {
	switch o.Type() {
	case object.TypeCommit:
		c, err := o.AsCommit()
		if err != nil {
			return xerrors.Errorf("could not parse commit: %w", err)
		}
		fmt.Fprintf(out, "tree %s\n", c.TreeID().String())
		for _, id := range c.ParentIDs() {
			fmt.Fprintf(out, "parent %s\n", id.String())
		}
		fmt.Fprintf(out, "author %s\n", c.Author().String())
		fmt.Fprintf(out, "committer %s\n", c.Committer().String())
		if c.GPGSig() != "" {
			fmt.Fprintf(out, "gpgsig %s\n", c.GPGSig())
		}
		fmt.Fprintln(out)
		fmt.Fprint(out, c.Message())
	case object.TypeTag:
		tag, err := o.AsTag()
		if err != nil {
			return xerrors.Errorf("could not parse tag: %w", err)
		}
		fmt.Fprintf(out, "object %s\n", tag.Target().String())
		fmt.Fprintf(out, "type %s\n", tag.Type().String())
		fmt.Fprintf(out, "tag %s\n", tag.Name())
		fmt.Fprintf(out, "tagger %s\n", tag.Tagger().String())
		if tag.GPGSig() != "" {
			fmt.Fprintf(out, "gpgsig %s\n", tag.GPGSig())
		}
		fmt.Fprintln(out)
		fmt.Fprint(out, tag.Message())
	case object.TypeTree:
		tree, err := o.AsTree()
		if err != nil {
			return xerrors.Errorf("could not parse tree: %w", err)
		}
		for _, e := range tree.Entries() {
			fmt.Fprintf(out, "%06o %s %s\t%s\n", e.Mode, e.Mode.ObjectType().String(), e.ID.String(), e.Path)
		}
	case object.TypeBlob:
		fmt.Fprint(out, string(o.Bytes()))
	}
	return nil
}

// referenceGetter is the subset of Repository resolveObjectName needs,
// kept minimal so it can be exercised without a full repository.
type referenceGetter interface {
	GetReference(name string) (*refs.Reference, error)
}

// resolveObjectName accepts a hex SHA prefix (>=4 chars), or a ref name
// (HEAD, a branch, or a tag, short or fully qualified).
func resolveObjectName(store *objstore.Store, refsSrc referenceGetter, name string) (object.Oid, error) {
	if looksLikeHex(name) && len(name) >= objstore.MinPrefixLen {
		oid, err := store.Resolve(name)
		if err == nil {
			return oid, nil
		}
	}

	candidates := []string{name, "refs/" + name, "refs/heads/" + name, "refs/tags/" + name}
	for _, refName := range candidates {
		ref, err := refsSrc.GetReference(refName)
		if err == nil {
			return ref.Target(), nil
		}
		if !errors.Is(err, refs.ErrRefNotFound) {
			return object.NullOid, err
		}
	}
	return object.NullOid, fmt.Errorf("not a valid object name %s", name)
}

func looksLikeHex(s string) bool {
	if s == "" {
		return false
	}
	return strings.IndexFunc(s, func(r rune) bool {
		return !(r >= '0' && r <= '9') && !(r >= 'a' && r <= 'f') && !(r >= 'A' && r <= 'F')
	}) == -1
}
