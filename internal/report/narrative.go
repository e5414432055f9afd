package report

// Narrative is the text portion of a draft report. Content is selected
// deterministically from fixed candidate pools using the draft identifier
// as the seed, so the same draft always reads the same way.
type Narrative struct {
	Analysis   string   `json:"analysis"`
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
}

var analysisPool = []string{
	"This class balances immediate contributors with long-term upside, leaning on value at premium positions.",
	"A disciplined board: few reaches, steady accumulation of starters in the middle rounds.",
	"An aggressive draft that chased ceiling over floor, with boom-or-bust swings in the early rounds.",
	"The front office stayed patient and let the board come to them, banking surplus value late.",
	"Positional need clearly drove the early selections, with best-available taking over on day three.",
	"A trenches-first approach that rebuilds both lines before addressing skill positions.",
	"This draft bets heavily on athletic traits, trusting the coaching staff to refine raw prospects.",
}

var strengthPool = []string{
	"Excellent value relative to consensus big boards",
	"Filled multiple starting-caliber holes",
	"Strong talent infusion on the defensive side",
	"Added a legitimate difference-maker at a premium position",
	"Depth accumulated at injury-prone positions",
	"Good blend of polished starters and developmental upside",
	"Trench play meaningfully improved",
	"Captured extra capital through savvy trade-downs",
}

var weaknessPool = []string{
	"Passed on higher-rated talent to reach for need",
	"Left a glaring hole at a premium position",
	"Thin on immediate-impact contributors",
	"Took on significant injury risk",
	"Character concerns with multiple selections",
	"Overinvested in one position group",
	"Traded away future capital for marginal gain",
	"Day-three picks project as special-teamers only",
}

// GenerateNarrative builds the deterministic narrative for a draft.
// Strength and weakness counts each land in [1,5].
func GenerateNarrative(draftID string) Narrative {
	rng := seededRNG(draftID + ":narrative")

	pickSome := func(pool []string) []string {
		max := 5
		if max > len(pool) {
			max = len(pool)
		}
		count := 1 + rng.Intn(max)
		perm := rng.Perm(len(pool))
		out := make([]string, 0, count)
		for _, i := range perm[:count] {
			out = append(out, pool[i])
		}
		return out
	}

	return Narrative{
		Analysis:   analysisPool[rng.Intn(len(analysisPool))],
		Strengths:  pickSome(strengthPool),
		Weaknesses: pickSome(weaknessPool),
	}
}
