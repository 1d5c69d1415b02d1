package frag

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// RuleTable is an Oracle backed by an explicit compatibility matrix, a bond type per rule and a capping map.
//
// YAML form:
//
//	bonds:
//	  amine: SINGLE
//	compatibility:
//	  "amine:0": ["amine:1", "carbonyl:0"]
//	capping:
//	  "amine:0": "hyd:1"
type RuleTable struct {
	Classes *APClassTable
	bonds   map[string]BondType
	compat  map[APClass][]APClass
	capping map[APClass]APClass
}

type ruleTableDoc struct {
	Bonds         map[string]string   `yaml:"bonds"`
	Compatibility map[string][]string `yaml:"compatibility"`
	Capping       map[string]string   `yaml:"capping"`
}

func NewRuleTable() *RuleTable {
	return &RuleTable{
		Classes: NewAPClassTable(),
		bonds:   make(map[string]BondType),
		compat:  make(map[APClass][]APClass),
		capping: make(map[APClass]APClass),
	}
}

// LoadRuleTable reads a RuleTable from a YAML file.
func LoadRuleTable(pathname string) (*RuleTable, error) {
	buf, err := os.ReadFile(pathname)
	if err != nil {
		return nil, err
	}
	rt, err := ParseRuleTable(buf)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %q", pathname)
	}
	return rt, nil
}

func ParseRuleTable(buf []byte) (*RuleTable, error) {
	var doc ruleTableDoc
	if err := yaml.Unmarshal(buf, &doc); err != nil {
		return nil, errors.Wrap(ErrBadConfig, err.Error())
	}

	rt := NewRuleTable()
	for rule, btStr := range doc.Bonds {
		bt, err := ParseBondType(btStr)
		if err != nil {
			return nil, errors.Wrapf(ErrBadConfig, "rule %q: %v", rule, err)
		}
		rt.SetBond(rule, bt)
	}
	for srcStr, trgStrs := range doc.Compatibility {
		src, err := rt.Classes.GetOrCreate(srcStr)
		if err != nil {
			return nil, err
		}
		for _, trgStr := range trgStrs {
			trg, err := rt.Classes.GetOrCreate(trgStr)
			if err != nil {
				return nil, err
			}
			rt.Allow(src, trg)
		}
	}
	for srcStr, capStr := range doc.Capping {
		src, err := rt.Classes.GetOrCreate(srcStr)
		if err != nil {
			return nil, err
		}
		capClass, err := rt.Classes.GetOrCreate(capStr)
		if err != nil {
			return nil, err
		}
		rt.SetCapping(src, capClass)
	}
	return rt, nil
}

func (rt *RuleTable) SetBond(rule string, bt BondType) {
	rt.bonds[rule] = bt
}

// Allow declares that src (parent side) may bond to trg (child side).
func (rt *RuleTable) Allow(src, trg APClass) {
	rt.Classes.Register(src)
	rt.Classes.Register(trg)
	for _, existing := range rt.compat[src] {
		if existing == trg {
			return
		}
	}
	rt.compat[src] = append(rt.compat[src], trg)
}

// SetCapping declares that a free AP of class src must be capped by a block exposing capClass.
func (rt *RuleTable) SetCapping(src, capClass APClass) {
	rt.Classes.Register(src)
	rt.Classes.Register(capClass)
	rt.capping[src] = capClass
}

func (rt *RuleTable) Compatible(a, b APClass) bool {
	for _, trg := range rt.compat[a] {
		if trg == b {
			return true
		}
	}
	return false
}

// BondFor returns the bond type declared for the rule of the given class.
func (rt *RuleTable) BondFor(apc APClass) BondType {
	if bt, ok := rt.bonds[apc.Rule]; ok {
		return bt
	}
	return Bond_Undefined
}

func (rt *RuleTable) BondType(a, b APClass) BondType {
	if bt := rt.BondFor(a); bt != Bond_Undefined {
		return bt
	}
	return rt.BondFor(b)
}

// CappingClassFor returns the class a capping block must expose to cap a free AP of the given class.
func (rt *RuleTable) CappingClassFor(apc APClass) (APClass, bool) {
	capClass, ok := rt.capping[apc]
	return capClass, ok
}
