package apps

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEntry(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestParseEntry(t *testing.T) {
	app, err := ParseEntry("test.desktop", `[Desktop Entry]
 Name=Test
 Icon=testicon
 Exec=/usr/bin/test --with-flag %f`)
	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, App{Name: "Test", Icon: "testicon", Exec: "/usr/bin/test --with-flag"}, *app)
}

func TestParseEntryIgnoresOtherGroupsAndLocales(t *testing.T) {
	app, err := ParseEntry("firefox.desktop", `# comment
[Desktop Action new-window]
Name=New Window
Exec=firefox --new-window

[Desktop Entry]
Name[de]=Feuerfuchs
Name=Firefox
Exec=firefox %u
Terminal=false
Icon=firefox
`)
	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, "Firefox", app.Name)
	assert.Equal(t, "firefox", app.Exec)
	assert.False(t, app.Terminal)
}

func TestParseEntryHidden(t *testing.T) {
	for _, key := range []string{"NoDisplay", "Hidden"} {
		app, err := ParseEntry("x.desktop", "[Desktop Entry]\nName=X\nExec=x\n"+key+"=true\n")
		require.NoError(t, err, key)
		assert.Nil(t, app, key)
	}
}

func TestParseEntryErrors(t *testing.T) {
	cases := map[string]string{
		"missing section": "Name=X\nExec=x\n",
		"missing name":    "[Desktop Entry]\nExec=x\n",
		"missing exec":    "[Desktop Entry]\nName=X\n",
		"only codes":      "[Desktop Entry]\nName=X\nExec=%U\n",
		"bad nodisplay":   "[Desktop Entry]\nName=X\nExec=x\nNoDisplay=yes\n",
		"bad terminal":    "[Desktop Entry]\nName=X\nExec=x\nTerminal=1\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseEntry("x.desktop", body)
			var entryErr *EntryError
			require.True(t, errors.As(err, &entryErr), "got %v", err)
			assert.Equal(t, "x.desktop", entryErr.Path)
		})
	}
}

func TestStripFieldCodes(t *testing.T) {
	assert.Equal(t, "/usr/bin/cat --flag", stripFieldCodes("/usr/bin/cat --flag"))
	assert.Equal(t, "/usr/bin/cat --flag", stripFieldCodes("/usr/bin/cat %f --flag"))
	assert.Equal(t, "code --new", stripFieldCodes("code  --new %F %i"))
}

func TestDecodeEntry(t *testing.T) {
	text, err := decodeEntry([]byte("\xEF\xBB\xBF[Desktop Entry]"))
	require.NoError(t, err)
	assert.Equal(t, "[Desktop Entry]", text)

	text, err = decodeEntry([]byte("Name=Caf\xe9"))
	require.NoError(t, err)
	assert.Equal(t, "Name=Café", text)

	text, err = decodeEntry([]byte{0xFF, 0xFE, 'N', 0, 'a', 0})
	require.NoError(t, err)
	assert.Equal(t, "Na", text)
}

func TestParseEntryFileLatin1(t *testing.T) {
	path := writeEntry(t, t.TempDir(), "cafe.desktop", "[Desktop Entry]\nName=Caf\xe9\nExec=cafe\n")
	app, err := ParseEntryFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Café", app.Name)
}

func TestScan(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()
	writeEntry(t, dirA, "zed.desktop", "[Desktop Entry]\nName=Zed\nExec=zed\n")
	writeEntry(t, dirA, "kde4/alpha.desktop", "[Desktop Entry]\nName=Alpha\nExec=alpha %U\n")
	writeEntry(t, dirA, "hidden.desktop", "[Desktop Entry]\nName=Hidden\nExec=h\nNoDisplay=true\n")
	writeEntry(t, dirA, "broken.desktop", "[Desktop Entry]\nExec=broken\n")
	writeEntry(t, dirA, "readme.txt", "not an entry")
	writeEntry(t, dirB, "zed.desktop", "[Desktop Entry]\nName=Zed\nExec=zed\n")

	apps, errs := Scan(context.Background(), []string{dirA, dirB, filepath.Join(dirA, "missing")})

	assert.Equal(t, []App{
		{Name: "Alpha", Exec: "alpha"},
		{Name: "Zed", Exec: "zed"},
	}, apps)
	require.Len(t, errs, 1)
	var entryErr *EntryError
	require.ErrorAs(t, errs[0], &entryErr)
	assert.Equal(t, filepath.Join(dirA, "broken.desktop"), entryErr.Path)
}

func TestCommand(t *testing.T) {
	argv, err := App{Name: "Vim", Exec: "vim -p"}.Command("")
	require.NoError(t, err)
	assert.Equal(t, []string{"vim", "-p"}, argv)

	argv, err = App{Name: "Htop", Exec: "htop", Terminal: true}.Command("alacritty --class poki")
	require.NoError(t, err)
	assert.Equal(t, []string{"alacritty", "--class", "poki", "-e", "htop"}, argv)

	t.Setenv("TERMINAL", "kitty")
	argv, err = App{Name: "Htop", Exec: "htop", Terminal: true}.Command("")
	require.NoError(t, err)
	assert.Equal(t, []string{"kitty", "-e", "htop"}, argv)

	t.Setenv("TERMINAL", "")
	_, err = App{Name: "Htop", Exec: "htop", Terminal: true}.Command("")
	assert.ErrorIs(t, err, ErrNoTerminal)

	_, err = App{Name: "Empty"}.Command("")
	assert.Error(t, err)
}

func TestIdentityIgnoresTerminal(t *testing.T) {
	a := App{Name: "Htop", Exec: "htop"}
	b := App{Name: "Htop", Exec: "htop", Terminal: true}
	assert.Equal(t, a.IdentityFields(), b.IdentityFields())
	assert.Equal(t, "Htop", a.SortString())
}
