package mcpserver

// EventFormatContract describes the Markdown event note format that LLM
// consumers should follow when creating or editing events in the vault.
const EventFormatContract = `# Charted Roots Event Note Format

Every event note is a Markdown file whose YAML frontmatter carries
` + "`" + `cr_type: event` + "`" + `. Timelines are built from these notes only.

## Structure

` + "```" + `markdown
---
cr_type: event                      # REQUIRED – marks the note as an event
cr_id: evt-ann-birth                # OPTIONAL – stable id; defaults to the note path
title: Birth of Ann Smith           # REQUIRED – node label and sort tiebreak
date: 1850-03-01                    # OPTIONAL – YYYY, YYYY-MM or YYYY-MM-DD
date_end: 1850-03-02                # OPTIONAL – end of a span (Gantt bars)
event_type: birth                   # OPTIONAL – registry id, e.g. birth, marriage, death
confidence: high                    # OPTIONAL – high | medium | low | unknown
category: core                      # OPTIONAL – overrides the registry category
person: "[[Ann Smith]]"             # OPTIONAL – principal person (wikilink)
persons:                            # OPTIONAL – other participants
  - "[[John Smith]]"
place: "[[Boston]]"                 # OPTIONAL – place note
before:                             # OPTIONAL – events this one precedes
  - "[[Ann Smith baptism]]"
after: []                           # OPTIONAL – events this one follows
sort_order: 10                      # OPTIONAL – integer, lower sorts first
groups:                             # OPTIONAL – free-form group names
  - Smith family
---

Narrative text in standard Markdown.
` + "```" + `

## Rules

1. **Ordering.** Events sort by ` + "`" + `sort_order` + "`" + ` when both have one, then by date
   (dated events before undated ones), then by title. ` + "`" + `before` + "`" + ` / ` + "`" + `after` + "`" + `
   references override that order and MUST NOT form a cycle; a cycle makes exports fail.
2. **References** are wikilinks to the target note's file name or path, without ` + "`" + `.md` + "`" + `.
   ` + "`" + `[[target|alias]]` + "`" + ` is accepted; the alias is ignored for resolution.
3. **Dates** start with a four-digit year. Anything else is treated as undated.
4. **Person notes** carry ` + "`" + `cr_type: person` + "`" + `; their ` + "`" + `title` + "`" + ` is the display name used
   for grouping and filtering.
5. **File paths** end with ` + "`" + `.md` + "`" + ` and use forward slashes.

## Timelines

- Export with the ` + "`" + `export_timeline` + "`" + ` tool. The canvas records its options and filters,
  so ` + "`" + `regenerate_timeline` + "`" + ` can rebuild it after events change.
- Do not hand-edit the ` + "`" + `metadata` + "`" + ` block of an exported canvas.
`
