// Package shellhook renders the shell integration that puts a project's
// installed modules on the module search path.
package shellhook

import (
	"fmt"

	"github.com/nuancepkg/nuance/pkg/config"
)

const nushellTemplate = `# nuance auto-activate hook: add this to your config.nu (or env.nu)
$env.config.hooks.env_change.PWD = (
    $env.config.hooks.env_change.PWD | default [] | append {|before, after|
        # Remove the previous project's modules
        if ($before | path join %[1]q | path exists) {
            let old_modules = ($before | path join %[2]q)
            $env.NU_LIB_DIRS = ($env.NU_LIB_DIRS | default [] | where { |it| $it != $old_modules })
        }
        # Add the new project's modules
        if ($after | path join %[1]q | path exists) {
            let new_modules = ($after | path join %[2]q)
            if ($new_modules | path exists) and ($new_modules not-in ($env.NU_LIB_DIRS | default [])) {
                $env.NU_LIB_DIRS = ($env.NU_LIB_DIRS | default [] | append $new_modules)
            }
        }
    }
)
`

// Nushell returns an env_change.PWD hook that adds a project's .nu_modules
// directory to NU_LIB_DIRS on entering it and removes it on leaving.
func Nushell() string {
	return fmt.Sprintf(nushellTemplate, config.ManifestFileName, config.ModulesDirName)
}
