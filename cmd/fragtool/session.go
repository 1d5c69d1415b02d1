package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/2x3systems/gofrag/frag"
	"github.com/2x3systems/gofrag/libfrag"
	"github.com/2x3systems/gofrag/libfrag/catalog"
	"github.com/2x3systems/gofrag/libfrag/graphjson"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
)

// session is one run of the tool: a catalog, the rules in force and the ID allocator every graph read shares.
type session struct {
	runID uuid.UUID
	cfg   frag.Config
	ids   *frag.Counter
	rules *frag.RuleTable
	cat   *catalog.Catalog
	ws    *libfrag.Workspace
}

func openSession(cfg frag.Config) (*session, error) {
	sess := &session{
		runID: uuid.New(),
		cfg:   cfg,
		ids:   frag.NewCounter(0, 0),
	}

	var oracle frag.Oracle
	if cfg.RulesPath != "" {
		rules, err := frag.LoadRuleTable(cfg.RulesPath)
		if err != nil {
			return nil, err
		}
		sess.rules = rules
		oracle = rules
	}

	var err error
	sess.cat, err = catalog.OpenCatalog(catalog.Opts{
		DbPathName: cfg.CatalogPath,
		IDs:        sess.ids,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "opening catalog %q", cfg.CatalogPath)
	}

	sess.ws = libfrag.NewWorkspace(oracle, sess.cat, sess.ids)
	sess.ws.Config = cfg

	klog.V(1).Infof("run %v: catalog %q, rules %q", sess.runID, cfg.CatalogPath, cfg.RulesPath)
	return sess, nil
}

func (sess *session) Close() {
	if sess.cat != nil {
		if err := sess.cat.Close(); err != nil {
			klog.Warningf("run %v: closing catalog: %v", sess.runID, err)
		}
		sess.cat = nil
	}
}

// readGraphs reads a JSON file holding either one graph or a list of them.
func (sess *session) readGraphs(pathname string) ([]*libfrag.Graph, error) {
	buf, err := os.ReadFile(pathname)
	if err != nil {
		return nil, err
	}

	var graphs []*libfrag.Graph
	if trimmed := bytes.TrimSpace(buf); len(trimmed) > 0 && trimmed[0] == '{' {
		var X *libfrag.Graph
		if X, err = graphjson.Unmarshal(trimmed, sess.ids); err == nil {
			graphs = append(graphs, X)
		}
	} else {
		graphs, err = graphjson.UnmarshalList(buf, sess.ids)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading %q", pathname)
	}
	klog.V(2).Infof("read %d graphs from %q", len(graphs), pathname)
	return graphs, nil
}

func (sess *session) writeGraphs(pathname string, graphs []*libfrag.Graph) error {
	buf, err := graphjson.MarshalList(graphs)
	if err != nil {
		return err
	}
	if pathname == "" {
		_, err = os.Stdout.Write(buf)
		return err
	}
	return os.WriteFile(pathname, buf, 0644)
}

// Check validates every graph read and returns one line per graph.
func (sess *session) Check(inputs []string) ([]string, error) {
	var reports []string
	numBad := 0
	for _, pathname := range inputs {
		graphs, err := sess.readGraphs(pathname)
		if err != nil {
			return reports, err
		}
		for i, X := range graphs {
			verdict, err := sess.ws.Evaluate(X)
			status := "ok"
			if err != nil || !verdict.Pass {
				numBad++
				status = "FAIL " + verdict.Reason
			}
			reports = append(reports, fmt.Sprintf("%s[%d] %v vertices=%d edges=%d rings=%d %s",
				pathname, i, X.Fingerprint(), X.NumVertices(), X.NumEdges(), X.NumRings(), status))
			X.Reclaim()
		}
	}
	if numBad > 0 {
		return reports, errors.Wrapf(frag.ErrStructuralViolation, "%d graphs failed validation", numBad)
	}
	return reports, nil
}

// Dedupe writes one graph per isomorphism class, in the order first seen.
func (sess *session) Dedupe(inputs []string, outPath string) error {
	set := catalog.NewGraphSet()
	defer set.Close()

	var unique []*libfrag.Graph
	total := 0
	for _, pathname := range inputs {
		graphs, err := sess.readGraphs(pathname)
		if err != nil {
			return err
		}
		for _, X := range graphs {
			total++
			added, err := set.TryAdd(X)
			if err != nil {
				return err
			}
			if added {
				unique = append(unique, X)
			} else {
				X.Reclaim()
			}
		}
	}
	klog.Infof("run %v: %d of %d graphs are unique", sess.runID, len(unique), total)
	return sess.writeGraphs(outPath, unique)
}

// Import adds every vertex read to the catalog as a building block of its own BBType.
// When rules are loaded, each capping rule is bound to the first imported CAP block exposing the capping class.
func (sess *session) Import(inputs []string) error {
	capBlocks := make(map[frag.APClass]int)
	for _, pathname := range inputs {
		graphs, err := sess.readGraphs(pathname)
		if err != nil {
			return err
		}
		for _, X := range graphs {
			for _, v := range X.Vertices() {
				bbID, err := sess.cat.AddBlock(v.BBType, v)
				if err != nil {
					return errors.Wrapf(err, "importing %v from %q", v, pathname)
				}
				klog.V(2).Infof("block %v %d <= %v", v.BBType, bbID, v)
				if v.BBType == frag.BB_Cap && v.NumAPs() > 0 {
					if _, exists := capBlocks[v.AP(0).Class]; !exists {
						capBlocks[v.AP(0).Class] = bbID
					}
				}
			}
			X.Reclaim()
		}
	}

	if sess.rules == nil {
		return nil
	}
	for _, apc := range sess.rules.Classes.Classes() {
		capClass, ok := sess.rules.CappingClassFor(apc)
		if !ok {
			continue
		}
		if bbID, ok := capBlocks[capClass]; ok {
			if err := sess.cat.SetCapping(apc, bbID); err != nil {
				return err
			}
			klog.V(1).Infof("%v is capped by block %d", apc, bbID)
		}
	}
	return nil
}

// Cap adds capping groups on the free APs of every graph read.
func (sess *session) Cap(inputs []string, outPath string) error {
	var capped []*libfrag.Graph
	for _, pathname := range inputs {
		graphs, err := sess.readGraphs(pathname)
		if err != nil {
			return err
		}
		for _, X := range graphs {
			before := X.NumVertices()
			if err = X.AddCappingGroups(sess.ws); err != nil {
				return errors.Wrapf(err, "capping graph %d of %q", X.GraphID, pathname)
			}
			klog.V(1).Infof("graph %d: %d capping groups added", X.GraphID, X.NumVertices()-before)
			capped = append(capped, X)
		}
	}
	return sess.writeGraphs(outPath, capped)
}
