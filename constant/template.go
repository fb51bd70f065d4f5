package constant

// GetLiveFn is the global every lookup script must define.
const GetLiveFn = "GetLive"

// ScriptExtension is the file extension of lookup scripts.
const ScriptExtension = ".lua"

// ScriptTemplate scaffolds a new lookup script. Rendered with text/template.
const ScriptTemplate = `{{ $divider := repeat "-" (plus (max (len .URL) (len .Platform) (len .Author) 3) 12) }}{{ $divider }}
-- @platform {{ .Platform }}
-- @url      {{ .URL }}
-- @author   {{ .Author }}
-- @license  MIT
{{ $divider }}


---@alias source { format: string, url: string }
---@alias room { live: boolean, title: string|nil, anchor: string|nil, cover: string|nil, avatar: string|nil, sources: source[] }


----- IMPORTS -----
local http = require("http")
local json = require("json")
--- END IMPORTS ---



----- MAIN -----

--- Looks up the live status of a room.
-- Return nil (or a table with live = false) when the room is offline.
-- Raise an error with error() when the lookup itself failed.
-- @param room_id string Room identifier on {{ .Platform }}
-- @param opts table { cookie: string } per-platform options
-- @return room|nil
function {{ .GetLiveFn }}(room_id, opts)
	return nil
end


--- END MAIN ---

-- ex: ts=4 sw=4 et filetype=lua
`
