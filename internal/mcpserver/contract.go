package mcpserver

// GridContract describes how a day is laid out so that LLM consumers can
// translate between clock times and slot indexes.
const GridContract = `# Day grid

A day is 96 slots of 15 minutes. Slot ` + "`i`" + ` starts at minute ` + "`i*15`" + ` after midnight:

| Index | Starts |
|---|---|
| 0 | 00:00 |
| 4 | 01:00 |
| 36 | 09:00 |
| 48 | 12:00 |
| 95 | 23:45 |

Each slot may carry:

- ` + "`color`" + `: any CSS color string chosen by the user.
- ` + "`status`" + `: legacy value. 0 = unproductive (#ff4d4f), 1 = neutral (#faad14),
  2 = productive (#52c41a). When both are set the color wins.
- ` + "`note`" + `: free text.

Dates are ` + "`YYYY-MM-DD`" + `. Tools also accept phrases such as "today" or "yesterday".

The calendar color of a day is the color used by the most slots; on a tie the
color that appears first in the day wins. Days without any colored slot have
no calendar color.

Daily summaries hold free text and a rating from 0 to 5.
`
