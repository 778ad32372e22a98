package anm

import (
	"net/http"
	"strconv"

	"github.com/pkg/errors"

	"github.com/mogaika/overgrowth_browser/pack"
	"github.com/mogaika/overgrowth_browser/webutils"
)

type Info struct {
	Version   int32    `json:"version"`
	Centered  bool     `json:"centered"`
	Looping   bool     `json:"looping"`
	Start     int32    `json:"start"`
	End       int32    `json:"end"`
	Keyframes int      `json:"keyframes"`
	Bones     int      `json:"bones"`
	Events    []string `json:"events"`
	IKBones   []string `json:"ik_bones"`
}

func (a *Animation) Info() Info {
	info := Info{
		Version:   a.Version,
		Centered:  a.Centered,
		Looping:   a.Looping,
		Start:     a.Start,
		End:       a.End,
		Keyframes: len(a.Keyframes),
		Events:    []string{},
		IKBones:   []string{},
	}
	seenIK := make(map[string]bool)
	for i := range a.Keyframes {
		kf := &a.Keyframes[i]
		if i == 0 {
			info.Bones = len(kf.BoneMatrices)
		}
		for _, ev := range kf.Events {
			info.Events = append(info.Events, ev.Name)
		}
		for _, ik := range kf.IKBones {
			if !seenIK[ik.Name] {
				seenIK[ik.Name] = true
				info.IKBones = append(info.IKBones, ik.Name)
			}
		}
	}
	return info
}

func (a *Animation) HttpAction(src pack.ResourceSource, w http.ResponseWriter, r *http.Request, action string) error {
	name := src.Name()
	switch action {
	case "yaml":
		webutils.WriteYamlFile(w, a, name)
	case "info":
		webutils.WriteJson(w, a.Info())
	case "convert":
		version := int64(Version)
		if v := r.URL.Query().Get("version"); v != "" {
			var err error
			if version, err = strconv.ParseInt(v, 10, 32); err != nil {
				return errors.Wrapf(err, "version %q", v)
			}
		}
		data, err := a.MarshalVersion(int32(version))
		if err != nil {
			return err
		}
		webutils.WriteFileHeaders(w, name)
		w.Write(data)
	default:
		return errors.Errorf("unknown animation action %q", action)
	}
	return nil
}
