package rcatui

import (
	"fmt"
	"sort"
	"strings"
)

const barWidth = 24

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	title := "investigation"
	if m.investigationID != "" {
		title = m.investigationID
	}
	fmt.Fprintf(&b, "%s  %s\n", titleStyle.Render(title), phaseStyle.Render("["+m.phase+"]"))

	if m.intent != "" {
		fmt.Fprintf(&b, "%s\n", phaseStyle.Render(fmt.Sprintf("intent=%s domain=%s", m.intent, m.domain)))
	}
	if m.progressPercent > 0 {
		fmt.Fprintf(&b, "%s %d%%\n", renderBar(float64(m.progressPercent)/100, barWidth), m.progressPercent)
	}
	b.WriteString("\n")

	if len(m.hypotheses) > 0 {
		b.WriteString(titleStyle.Render("hypotheses") + "\n")
		for _, h := range m.sortedHypotheses() {
			fmt.Fprintf(&b, "  %s %s  %s (%.2f, %s)\n",
				renderBar(h.confidence, barWidth),
				hypothesisLabelStyle.Render(h.description),
				phaseStyle.Render(h.category),
				h.confidence,
				h.status,
			)
		}
		b.WriteString("\n")
	}

	if len(m.agents) > 0 {
		b.WriteString(titleStyle.Render("sub-investigators") + "\n")
		for _, a := range m.sortedAgents() {
			style := agentStatusStyle
			status := a.lastAction
			if a.terminalReason != "" {
				style = agentDoneStyle
				status = "done: " + a.terminalReason
			}
			fmt.Fprintf(&b, "  %s  %s (%d findings)\n", style.Render(a.agentID+" "+status), phaseStyle.Render("hyp="+a.hypothesisID), a.evidenceCount)
		}
		b.WriteString("\n")
	}

	if m.errMessage != "" {
		b.WriteString(errorStyle.Render("error: "+m.errMessage) + "\n")
	}

	if m.verdict != nil {
		var vb strings.Builder
		fmt.Fprintf(&vb, "root cause: %s\n", m.verdict.RootCause)
		fmt.Fprintf(&vb, "category: %s  confidence: %.2f\n", m.verdict.Category, m.verdict.Confidence)
		if len(m.verdict.Actions) > 0 {
			vb.WriteString("recommended actions:\n")
			for _, a := range m.verdict.Actions {
				fmt.Fprintf(&vb, "  - %s\n", a)
			}
		}
		if m.verdict.NeedsHuman {
			fmt.Fprintf(&vb, "needs human review: %s\n", m.verdict.HumanQuestion)
		}
		b.WriteString(verdictBoxStyle.Render(vb.String()) + "\n")
	}

	if !m.done {
		b.WriteString(helpStyle.Render(m.spinner.View() + " watching... (q to quit)"))
	} else {
		b.WriteString(helpStyle.Render("investigation finished (q to quit)"))
	}

	return b.String()
}

func (m Model) sortedHypotheses() []*hypothesisView {
	out := make([]*hypothesisView, 0, len(m.hypotheses))
	for _, h := range m.hypotheses {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].order < out[j].order })
	return out
}

func (m Model) sortedAgents() []*agentView {
	out := make([]*agentView, 0, len(m.agents))
	for _, a := range m.agents {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].order < out[j].order })
	return out
}
