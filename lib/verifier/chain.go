package libvmnverifier

import (
	"sort"
	"strconv"

	"github.com/fanliao/go-concurrentMap"
	"github.com/ldsec/vmnverify/lib"
	"github.com/ldsec/vmnverify/lib/dataset"
	"go.dedis.ch/onet/v3/log"
)

// VerifyChain verifies the proof of every mix party of a session dataset. Party proofs are independent and
// verified concurrently; progress, if not nil, is called once per verified party. A dataset with no party file
// is verified as the single proof of party 1, whose checks then report the missing artifacts.
func (v *Verifier) VerifyChain(ds *libvmndataset.Dataset, progress func(party int)) *ChainReport {
	parties := ds.Parties()
	if len(parties) == 0 {
		log.Warn("No proof file found in the dataset")
		parties = []int{1}
	}

	reports := concurrent.NewConcurrentMap()
	wg := libvmn.StartParallelize(uint(len(parties)))
	verifyParty := func(l int) {
		report := v.VerifyParty(l, ds.PartyFiles(l))
		if _, err := reports.Put(strconv.Itoa(l), report); err != nil {
			log.Error("Could not store report of party", l, ":", err)
		}
		if progress != nil {
			progress(l)
		}
		wg.Done(nil)
	}
	for _, l := range parties {
		if libvmn.PARALLELIZE {
			go verifyParty(l)
		} else {
			verifyParty(l)
		}
	}
	libvmn.EndParallelize(wg)

	chain := &ChainReport{Session: v.pp.Info.SessionID(), Verdict: true}
	for _, l := range parties {
		value, err := reports.Get(strconv.Itoa(l))
		if err != nil || value == nil {
			log.Error("No report for party", l)
			chain.Verdict = false
			continue
		}
		report := value.(*VerdictReport)
		chain.Reports = append(chain.Reports, report)
		chain.Verdict = chain.Verdict && report.Verdict
	}
	sort.Slice(chain.Reports, func(i, j int) bool { return chain.Reports[i].Party < chain.Reports[j].Party })
	log.Lvl1("Verified", len(chain.Reports), "mix parties:", chain.Status())
	return chain
}
